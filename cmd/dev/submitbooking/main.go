package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Drives the public form end to end against a running server: fetches a
// captcha challenge, solves it, and submits a booking request.
func main() {
	var (
		base        = flag.String("base", "", "api base url (defaults to http://localhost<HTTP_ADDR>)")
		parentName  = flag.String("parent", "Marie Dupont", "parent name")
		parentEmail = flag.String("email", "marie@example.com", "parent email")
		parentPhone = flag.String("phone", "+33612345678", "parent phone")
		serviceType = flag.String("service", "babysitting", "service type")
		date        = flag.String("date", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "requested date")
		start       = flag.String("start", "18:00", "start time")
		end         = flag.String("end", "22:00", "end time")
		children    = flag.Int("children", 1, "children count")
	)
	flag.Parse()

	if *base == "" {
		httpAddr := os.Getenv("HTTP_ADDR")
		if httpAddr == "" {
			httpAddr = ":8080"
		}
		if strings.HasPrefix(httpAddr, ":") {
			*base = "http://localhost" + httpAddr
		} else {
			*base = "http://localhost:8080"
		}
	}

	c := &http.Client{Timeout: 10 * time.Second}

	resp, err := c.Post(*base+"/v1/captcha", "application/json", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "captcha: %v\n", err)
		os.Exit(1)
	}
	var challenge struct {
		ID       string `json:"id"`
		Question string `json:"question"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		resp.Body.Close()
		fmt.Fprintf(os.Stderr, "captcha decode: %v\n", err)
		os.Exit(1)
	}
	resp.Body.Close()

	answer, err := solve(challenge.Question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "solve %q: %v\n", challenge.Question, err)
		os.Exit(1)
	}

	payload := map[string]any{
		"parentName":    *parentName,
		"parentEmail":   *parentEmail,
		"parentPhone":   *parentPhone,
		"serviceType":   *serviceType,
		"requestedDate": *date,
		"startTime":     *start,
		"endTime":       *end,
		"childrenCount": *children,
		"captchaId":     challenge.ID,
		"captchaAnswer": answer,
	}
	b, _ := json.Marshal(payload)

	resp, err = c.Post(*base+"/v1/bookings", "application/json", bytes.NewReader(b))
	if err != nil {
		fmt.Fprintf(os.Stderr, "post booking: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d\n%s\n", resp.StatusCode, string(body))
}

// solve extracts the two operands from "Combien font A + B ?".
func solve(question string) (string, error) {
	var a, b int
	if _, err := fmt.Sscanf(question, "Combien font %d + %d ?", &a, &b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", a+b), nil
}
