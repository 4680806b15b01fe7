package mailer

import "embed"

const (
	FromName            = "CareCart"
	maxRetires          = 3
	OrderPlacedTemplate = "order_placed.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
