package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"golanka_travel_echo/internal/config"
	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
	"golanka_travel_echo/internal/services"
)

func main() {
	to := flag.String("to", "", "Recipient email address")
	timeout := flag.Duration("timeout", 30*time.Second, "SMTP timeout")
	flag.Parse()

	if *to == "" {
		log.Fatal("Please provide a recipient using -to flag")
	}

	// Load envs
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	service := services.NewEmailService(services.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.BrandName,
	})

	subject, body, err := services.RenderPaymentConfirmation(cfg.BrandName, payments.ConfirmationNotice{
		OrderID:       "TEST-ORDER",
		Recipient:     *to,
		Provider:      models.PaymentGatewayPayHere,
		TransactionID: "TEST-TRANSACTION",
		Amount:        "1000.00",
		Currency:      "LKR",
	})
	if err != nil {
		log.Fatalf("Failed to render email: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Printf("Sending test payment confirmation to %s via %s:%s", *to, cfg.SMTPHost, cfg.SMTPPort)
	if err := service.SendEmail(ctx, []string{*to}, subject, body); err != nil {
		log.Fatalf("Failed to send email: %v", err)
	}

	log.Println("Email sent successfully!")
}
