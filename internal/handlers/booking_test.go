package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Hemant-G/ServiceSphere/internal/models"
	"github.com/Hemant-G/ServiceSphere/internal/storage"
)

func TestParseBookingRequestMultipartFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("serviceId", "64a000000000000000000001")
	_ = writer.WriteField("providerId", "64a000000000000000000002")
	_ = writer.WriteField("scheduledDate", "2030-01-02T10:00:00Z")
	_ = writer.WriteField("contactPhone", "  555-0101 ")
	_ = writer.WriteField("customerAddress", `{"city":"Austin","state":"TX"}`)
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/bookings", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	parsed, err := parseBookingRequest(c)
	if err != nil {
		t.Fatalf("parseBookingRequest returned error: %v", err)
	}
	if parsed.ServiceID != "64a000000000000000000001" {
		t.Fatalf("unexpected serviceId: %q", parsed.ServiceID)
	}
	if parsed.ContactPhone != "555-0101" {
		t.Fatalf("expected trimmed phone, got %q", parsed.ContactPhone)
	}
	if parsed.CustomerAddress == nil || parsed.CustomerAddress.City != "Austin" {
		t.Fatalf("expected parsed address, got %+v", parsed.CustomerAddress)
	}
}

func TestParseBookingRequestJSONBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	payload, _ := json.Marshal(map[string]interface{}{
		"serviceId":     "64a000000000000000000001",
		"providerId":    "64a000000000000000000002",
		"scheduledDate": "2030-01-02T10:00:00Z",
		"contactPhone":  "555-0101",
	})

	req := httptest.NewRequest("POST", "/bookings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	parsed, err := parseBookingRequest(c)
	if err != nil {
		t.Fatalf("parseBookingRequest returned error: %v", err)
	}
	if parsed.ProviderID != "64a000000000000000000002" {
		t.Fatalf("unexpected providerId: %q", parsed.ProviderID)
	}
}

func TestParseBookingRequestRejectsBadAddressJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("customerAddress", "{broken")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/bookings", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if _, err := parseBookingRequest(c); err == nil {
		t.Fatal("expected error for malformed address payload")
	}
}

func TestBookingOwnerFilterScopesByRole(t *testing.T) {
	userID := primitive.NewObjectID()

	customer := bookingOwnerFilter(userID, models.RoleCustomer)
	if customer["customer"] != userID {
		t.Fatalf("expected customer scope, got %v", customer)
	}

	provider := bookingOwnerFilter(userID, models.RoleProvider)
	if provider["provider"] != userID {
		t.Fatalf("expected provider scope, got %v", provider)
	}

	admin := bookingOwnerFilter(userID, models.RoleAdmin)
	if len(admin) != 0 {
		t.Fatalf("expected unscoped admin filter, got %v", admin)
	}
}

func TestSignUploadAnswers503OnLocalDriver(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payload := strings.NewReader(`{"filename":"a.png","contentType":"image/png"}`)
	req := httptest.NewRequest("POST", "/portfolio/sign-upload", payload)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = req
	c.Set("userId", primitive.NewObjectID())
	c.Set("role", models.RoleProvider)

	SignUpload(storage.NewLocalStorage(t.TempDir()))(c)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "\"success\":false") {
		t.Fatalf("expected failure envelope, got %s", recorder.Body.String())
	}
}
