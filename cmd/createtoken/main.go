package main

import (
	"fmt"
	"log"
	"os"

	"tadbeer.com/hrms/security"
)

func main() {
	secret := os.Getenv("HRMS_SIGNING_SECRET")
	if secret == "" {
		log.Fatal("HRMS_SIGNING_SECRET is not set")
	}

	token, err := security.CreateIdentityToken(&security.HrmsIdentity{
		Id:       1,
		UserName: "admin",
		Role:     "admin",
	}, secret, 3600)
	if err != nil {
		log.Fatalf("failed to create token: %v", err)
	}
	fmt.Println(token)
}
