package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"studentrecords/internal/handlers"
)

func main() {
	lambda.Start(handlers.Health)
}
