package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Hemant-G/ServiceSphere/internal/storage"
)

func TestParsePortfolioRequestMultipartFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("title", "Kitchen remodel")
	_ = writer.WriteField("description", "Full renovation")
	_ = writer.WriteField("category", "Carpentry")
	_ = writer.WriteField("skills", "framing, cabinets , ")
	_ = writer.WriteField("experience", "7")
	_ = writer.WriteField("featured", "true")
	_ = writer.WriteField("certifications", `[{"name":"Licensed Carpenter"}]`)
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/portfolio", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	parsed, err := parsePortfolioRequest(c, storage.NewLocalStorage(t.TempDir()), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("parsePortfolioRequest returned error: %v", err)
	}
	if parsed.Title != "Kitchen remodel" || parsed.Category != "Carpentry" {
		t.Fatalf("unexpected fields: %+v", parsed)
	}
	if len(parsed.Skills) != 2 || parsed.Skills[0] != "framing" || parsed.Skills[1] != "cabinets" {
		t.Fatalf("expected trimmed skill list, got %v", parsed.Skills)
	}
	if parsed.Experience != 7 {
		t.Fatalf("expected experience 7, got %d", parsed.Experience)
	}
	if !parsed.Featured {
		t.Fatal("expected featured=true")
	}
	if len(parsed.Certifications) != 1 || parsed.Certifications[0].Name != "Licensed Carpenter" {
		t.Fatalf("unexpected certifications: %+v", parsed.Certifications)
	}
}

func TestParsePortfolioRequestRejectsBadExperience(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("experience", "several")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/portfolio", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if _, err := parsePortfolioRequest(c, storage.NewLocalStorage(t.TempDir()), primitive.NewObjectID()); err == nil {
		t.Fatal("expected error for non-numeric experience")
	}
}

func TestParsePortfolioRequestStoresUploadedImages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("title", "Deck build")

	part, err := writer.CreateFormFile("images", "before.jpg")
	if err != nil {
		t.Fatalf("form file failed: %v", err)
	}
	_, _ = part.Write([]byte("jpegdata"))
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/portfolio", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	providerID := primitive.NewObjectID()
	parsed, err := parsePortfolioRequest(c, storage.NewLocalStorage(t.TempDir()), providerID)
	if err != nil {
		t.Fatalf("parsePortfolioRequest returned error: %v", err)
	}
	if len(parsed.Images) != 1 {
		t.Fatalf("expected one stored image, got %d", len(parsed.Images))
	}
	if parsed.Images[0].StorageID == "" || parsed.Images[0].URL == "" {
		t.Fatalf("expected populated media ref, got %+v", parsed.Images[0])
	}
}
