// internal/server/estimator.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"mcp-nutrition-tracker/internal/models"
	"mcp-nutrition-tracker/internal/nutrition"
)

// Estimator turns a free-text meal description into estimated food
// entries with full nutrient vectors, via an LLM gateway behind the MCP
// proxy. It backs the quick_add and estimate_nutrition tools.
type Estimator struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
	logger     *zap.Logger
}

type EstimateRequest struct {
	Description       string `json:"description"`
	AskClarifications bool   `json:"ask_clarifications"`
}

func NewEstimator(logger *zap.Logger) *Estimator {
	proxyURL := os.Getenv("MCP_PROXY_URL")
	if proxyURL == "" {
		proxyURL = "http://mcp-compose-http-proxy:9876"
	}

	apiKey := os.Getenv("MCP_PROXY_API_KEY")
	if apiKey == "" {
		apiKey = "myapikey"
	}

	model := os.Getenv("OPENROUTER_MODEL")
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}

	return &Estimator{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		proxyURL: proxyURL,
		apiKey:   apiKey,
		model:    model,
		logger:   logger,
	}
}

func (e *Estimator) EstimateNutrition(ctx context.Context, req *EstimateRequest) (*models.NutritionEstimate, error) {
	systemPrompt := `You are a nutrition expert estimating the full nutritional content of meals.

When analyzing meals, provide realistic estimates per food item and identify when more information is needed.

IMPORTANT: Always respond with valid JSON in this exact format:
{
  "foods": [
    {
      "description": "specific food item name",
      "servings": [number],
      "serving_size": [number],
      "serving_size_unit": "g|cup|oz|piece",
      "nutrition": {
        "calories": [number],
        "protein": [number],
        "carbs": [number],
        "fat": [number],
        "fiber": [number],
        "sugar": [number],
        "sodium": [number]
      }
    }
  ],
  "confidence": "high|medium|low",
  "clarifications": ["specific question1", "specific question2"],
  "needs_more_info": [true/false]
}

Nutrition values must reflect the servings actually eaten, not a per-serving baseline.
For items like "a baked potato", ask specific questions about size since this greatly affects the values.`

	clarificationText := ""
	if req.AskClarifications {
		clarificationText = `

If the description lacks specific details about:
- Portion sizes (small, medium, large, or specific measurements)
- Preparation methods (fried vs baked, added oil or butter)
- Specific varieties with different nutritional content

Then set "needs_more_info" to true and include specific clarifying questions in the "clarifications" array.`
	}

	userPrompt := fmt.Sprintf(`Analyze this meal and estimate its full nutrition: "%s"

Provide a detailed breakdown of each food item with realistic portion estimates.%s`, req.Description, clarificationText)

	completionRequest := map[string]interface{}{
		"model":         e.model,
		"system_prompt": systemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": userPrompt,
			},
		},
		"max_tokens":  2000,
		"temperature": 0.1, // Low temperature for consistent analysis
	}

	gatewayResponse, err := e.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to get AI completion: %w", err)
	}

	return e.parseAIResponse(gatewayResponse), nil
}

func (e *Estimator) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", e.proxyURL)

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("request failed with status %d and couldn't read body: %v", resp.StatusCode, err)
		}
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var mcpResponse map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&mcpResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	// Extract the result content
	if result, ok := mcpResponse["result"].(map[string]interface{}); ok {
		if content, ok := result["content"].([]interface{}); ok && len(content) > 0 {
			if textContent, ok := content[0].(map[string]interface{}); ok {
				if text, ok := textContent["text"].(string); ok {
					return text, nil
				}
			}
		}
	}

	return "", fmt.Errorf("unexpected response format")
}

func (e *Estimator) parseAIResponse(aiOutput string) *models.NutritionEstimate {
	var completionResp map[string]interface{}
	if err := json.Unmarshal([]byte(aiOutput), &completionResp); err != nil {
		return e.createFallbackEstimate()
	}

	content, ok := completionResp["content"].(string)
	if !ok {
		return e.createFallbackEstimate()
	}

	// Extract the JSON object embedded in the completion text
	start := strings.Index(content, "{")
	if start == -1 {
		return e.createFallbackEstimate()
	}
	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return e.createFallbackEstimate()
	}

	var estimate models.NutritionEstimate
	if err := json.Unmarshal([]byte(content[start:end+1]), &estimate); err != nil {
		e.logger.Warn("failed to parse estimator output", zap.Error(err))
		return e.createFallbackEstimate()
	}

	estimate.Totals = nutrition.MealTotals(estimate.Foods)
	return &estimate
}

func (e *Estimator) createFallbackEstimate() *models.NutritionEstimate {
	return &models.NutritionEstimate{
		Confidence:    models.LowConfidence,
		NeedsMoreInfo: true,
		Clarifications: []string{
			"What foods were in the meal?",
			"Roughly how large were the portions?",
		},
	}
}
