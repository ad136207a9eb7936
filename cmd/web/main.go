// @title           DesignHub API
// @version         1.0
// @description     Маркетплейс дизайн-услуг: заказы, сдача работ, портфолио и оплата.
// @contact.name    DesignHub
// @contact.email   support@designhub.local
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /
// @securityDefinitions.apikey CookieAuth
// @in              cookie
// @name            session

package main

import (
	_ "designhub_backend/docs"
	"designhub_backend/internal/app"
)

func main() {
	app.Run()
}
