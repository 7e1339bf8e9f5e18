package main

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs

// @title           Run4Recht API
// @version         0.1.0
// @description     Step statistics, department rankings and tournament info.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
