package main

import "baraholka/internal/app"

// @title           Baraholka Auth API
// @version         1.0
// @description     Вход по номеру телефона: одноразовые SMS-коды.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
