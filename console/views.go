package console

import "github.com/MrEthical07/aura"

// navItem is one entry of the console sidebar.
type navItem struct {
	Path    string
	Label   string
	Heading string
}

var navItems = []navItem{
	{Path: "/", Label: "Inicio", Heading: "Bienvenido a AURA"},
	{Path: "/dashboard", Label: "Panel de Control", Heading: "Panel de Control"},
	{Path: "/users", Label: "Gestión de Usuarios", Heading: "Gestión de Usuarios"},
	{Path: "/roles", Label: "Roles y Permisos", Heading: "Roles y Permisos"},
	{Path: "/devices", Label: "Administración de Dispositivos", Heading: "Administración de Dispositivos"},
	{Path: "/locations", Label: "Gestión de Ubicaciones", Heading: "Gestión de Ubicaciones"},
	{Path: "/zones", Label: "Administración de Zonas", Heading: "Administración de Zonas"},
	{Path: "/events", Label: "Eventos y Registros", Heading: "Eventos y Registros"},
	{Path: "/communications", Label: "Comunicaciones", Heading: "Comunicaciones"},
	{Path: "/settings", Label: "Configuración del Sistema", Heading: "Configuración del Sistema"},
}

var (
	profileItem  = navItem{Path: "/profile", Label: "Perfil", Heading: "Configuración de Perfil"}
	notFoundItem = navItem{Label: "No encontrado", Heading: "Página no encontrada"}
)

const (
	productName    = "AURA"
	productTagline = "Administración Unificada de Recursos y Accesos"
)

// SessionView is what every protected page receives: the signed-in operator and
// the action that ends the session.
type SessionView struct {
	User       aura.Identity
	LogoutPath string
	// Active is the nav path of the page being rendered.
	Active string
	// Link maps a console path to a URL under the base path.
	Link func(path string) string
}

func (v SessionView) link(path string) string {
	if v.Link == nil {
		return path
	}
	return v.Link(path)
}

func pageTitle(title string) string {
	return title + " · " + productName
}

// loginData fills the login form; Message is shown as an alert when set.
type loginData struct {
	Action  string
	Email   string
	Message string
}

func initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return "U"
}
