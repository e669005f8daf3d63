package domain

// Config carries the settings the handlers and usecases need at runtime.
type Config struct {
	JWTSecret       string `yaml:"jwtSecret"`
	JWTIssuer       string `yaml:"jwtIssuer"`
	DashboardURL    string `yaml:"dashboardURL"`
	UploadDir       string `yaml:"uploadDir"`
	UploadURLPrefix string `yaml:"uploadURLPrefix"`
}
