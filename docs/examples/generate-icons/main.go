// Iconforge Client Example
//
// This is a minimal example of generating icons through the Iconforge API
// and downloading the results.
//
// Usage:
//   export ICONFORGE_API_KEY="ik_live_your_key_here"
//   go run main.go -prompt "a rocket ship" -color blue -n 2
//
// Generated PNGs are written to the current directory.

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"time"
)

type generateRequest struct {
	Prompt        string `json:"prompt"`
	Color         string `json:"color"`
	NumberOfIcons int    `json:"number_of_icons,omitempty"`
}

type generateResponse struct {
	Data []struct {
		ImageURL string `json:"image_url"`
	} `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func main() {
	var (
		baseURL = flag.String("base-url", "http://localhost:8080", "Iconforge API base URL")
		prompt  = flag.String("prompt", "a rocket ship", "What the icon should depict")
		color   = flag.String("color", "blue", "Primary color of the icon")
		count   = flag.Int("n", 1, "Number of icons to generate (max 10)")
	)
	flag.Parse()

	apiKey := os.Getenv("ICONFORGE_API_KEY")
	if apiKey == "" {
		log.Fatal("ICONFORGE_API_KEY environment variable is required")
	}

	client := &http.Client{Timeout: 2 * time.Minute}

	payload, err := json.Marshal(generateRequest{
		Prompt:        *prompt,
		Color:         *color,
		NumberOfIcons: *count,
	})
	if err != nil {
		log.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/icons", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			log.Fatalf("API error %d (%s): %s", resp.StatusCode, apiErr.Code, apiErr.Error)
		}
		log.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("parse response: %v", err)
	}

	log.Printf("✓ Generated %d icon(s)", len(result.Data))

	for i, icon := range result.Data {
		filename := fmt.Sprintf("icon-%d-%s.png", i+1, path.Base(icon.ImageURL))
		if err := download(client, icon.ImageURL, filename); err != nil {
			log.Printf("  download %s: %v", icon.ImageURL, err)
			continue
		}
		log.Printf("  saved %s", filename)
	}
}

func download(client *http.Client, url, filename string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}
