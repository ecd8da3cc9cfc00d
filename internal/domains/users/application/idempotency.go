package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
)

type normalizedCreateUserInput struct {
	Username  *string   `json:"username"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Age       *int      `json:"age"`
	Pets      *[]string `json:"pets"`
}

// FingerprintCreateUser builds a deterministic hash of the create-user payload (excluding the idempotency key).
func FingerprintCreateUser(input types.UserInput) (string, error) {
	payload, err := json.Marshal(normalizeCreateUserInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCreateUserInput(input types.UserInput) normalizedCreateUserInput {
	normalized := normalizedCreateUserInput{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Age:       input.Age,
	}
	if input.Pets != nil {
		// pets are a set: order and duplicates do not change the request
		seen := make(map[string]struct{}, len(*input.Pets))
		pets := make([]string, 0, len(*input.Pets))
		for _, name := range *input.Pets {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			pets = append(pets, name)
		}
		sort.Strings(pets)
		normalized.Pets = &pets
	}
	return normalized
}
