package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

func TestIssueTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	secret := "test-secret"

	raw, err := issueToken(userID, models.RoleProvider, "pro@example.com", secret, time.Hour)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not validate: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected map claims")
	}
	if claims["userId"] != userID.Hex() {
		t.Fatalf("expected userId %s, got %v", userID.Hex(), claims["userId"])
	}
	if claims["role"] != string(models.RoleProvider) {
		t.Fatalf("expected provider role, got %v", claims["role"])
	}
	if claims["email"] != "pro@example.com" {
		t.Fatalf("expected email claim, got %v", claims["email"])
	}
}

func TestIssueTokenRejectsWrongSecret(t *testing.T) {
	raw, err := issueToken(primitive.NewObjectID(), models.RoleCustomer, "c@example.com", "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret-b"), nil
	})
	if err == nil && token.Valid {
		t.Fatal("expected validation failure with the wrong secret")
	}
}

func TestPublicUserHidesPasswordHash(t *testing.T) {
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Test Provider",
		Email:        "pro@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         models.RoleProvider,
	}

	public := publicUser(user)
	for key := range public {
		if key == "passwordHash" || key == "password" {
			t.Fatalf("public projection must not contain %s", key)
		}
	}
	if public["email"] != "pro@example.com" {
		t.Fatalf("expected email in projection, got %v", public["email"])
	}
}

func TestApplyAddressFieldsUsesDotNotation(t *testing.T) {
	update := bson.M{}
	applyAddressFields(update, &addressRequest{City: "Austin", State: "TX"})

	if update["address.city"] != "Austin" || update["address.state"] != "TX" {
		t.Fatalf("expected dot-notation address fields, got %v", update)
	}
	if _, ok := update["address.street"]; ok {
		t.Fatal("blank address fields must be skipped")
	}
}
