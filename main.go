package main

import "contactbook/internal/app"

// @title           Contacts API
// @version         1.0
// @description     Бэкенд записной книжки: регистрация с подтверждением email, JWT-сессии, контакты с днями рождения.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
