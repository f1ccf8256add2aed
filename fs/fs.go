// Package appfs embeds the files the binaries need at runtime: SQL migrations, email templates
// and the chatbot knowledge base.
package appfs

import "embed"

//go:embed migrations/*.sql assets/templates/email/* assets/chatbot/*.yaml
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "assets/templates/email"
	ChatbotKnowledge  = "assets/chatbot/knowledge.yaml"
)
