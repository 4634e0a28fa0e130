package main

import (
	"fmt"
	"log"

	"github.com/wepay/signer-go/signer"
)

func main() {
	s := signer.NewSigner("your_client_id", "your_client_secret")

	payload := map[string]any{
		"token":        "acb1b5b8-5d6b-4c8d-a393-dbd8a9ab4c",
		"page":         "https://wepay.com/account/12345",
		"redirect_uri": "https://partnersite.com/home",
	}

	signature, err := s.Sign(payload)
	if err != nil {
		log.Fatalf("Failed to sign payload: %v", err)
	}
	fmt.Printf("Signature (%d hex chars):\n  %s\n\n", len(signature), signature)

	query, err := s.QueryParams(payload, "stoken")
	if err != nil {
		log.Fatalf("Failed to build query string: %v", err)
	}
	fmt.Printf("Query string:\n  %s\n\n", query)

	ok, err := s.Verify(payload, signature)
	if err != nil {
		log.Fatalf("Failed to verify payload: %v", err)
	}
	fmt.Printf("Signature verifies: %v\n", ok)

	payload["page"] = "https://wepay.com/account/99999"
	ok, _ = s.Verify(payload, signature)
	fmt.Printf("After tampering with the page: %v\n", ok)
}
