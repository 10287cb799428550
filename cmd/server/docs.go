package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Data Signals Hub API
// @version         0.1.0
// @description     Signal marketplace: publishing, purchases, ratings, analyst stats and notifications.
// @host            localhost:8080
// @BasePath        /make-server-45dfd248
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
