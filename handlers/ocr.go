package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"tripledger-backend/config"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
)

var ocrClient = &http.Client{Timeout: 30 * time.Second}

// POST /api/ocr/parse — forwards a receipt image to the OCR service and
// returns draft expenses extracted from it. Drafts are suggestions only;
// nothing is written to the ledger until the client submits them.
func ParseReceipt(c *gin.Context) {
	if config.AppConfig.OCRServiceURL == "" {
		utils.ServiceUnavailable(c, "Receipt scanning is not configured")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequest(c, "image file is required")
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", header.Filename)
	if err != nil {
		utils.InternalError(c, "Failed to prepare OCR request")
		return
	}
	if _, err := io.Copy(part, file); err != nil {
		utils.InternalError(c, "Failed to read uploaded image")
		return
	}
	writer.Close()

	url := fmt.Sprintf("%s/parse", config.AppConfig.OCRServiceURL)
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, url, &buf)
	if err != nil {
		utils.InternalError(c, "Failed to prepare OCR request")
		return
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := ocrClient.Do(req)
	if err != nil {
		utils.ServiceUnavailable(c, "Receipt scanning service is unreachable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		utils.ServiceUnavailable(c, fmt.Sprintf("Receipt scanning failed with status %d", resp.StatusCode))
		return
	}

	var drafts []models.OCRExpenseDraft
	if err := json.NewDecoder(resp.Body).Decode(&drafts); err != nil {
		utils.InternalError(c, "Invalid response from receipt scanning service")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", drafts)
}
