// Package main is the entry point for cmscore.
//
//	@title						cmscore - CMS Extensibility Core
//	@version					1.0
//	@description				Hook registry, module lifecycle and theme management for a news CMS.
//
//	@contact.name				cmscore maintainers
//	@contact.url				https://github.com/artpar/cmscore/issues
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin token (format: "Bearer {token}")
package main

//go:generate swag init -g cmd/cmscore/main.go -d ../../ -o ../../docs/swagger --outputTypes go

func main() {
	Execute()
}
