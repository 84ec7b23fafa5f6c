// Command wsprobe load-tests the notification websocket. Listener clients log in
// and hold /ws open while an optional actor toggles a like on one of the
// listener's photos, so every toggle that creates a like fans out an event.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	LikeToggles          int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

func main() {
	host := flag.String("host", "localhost:3000", "API server host")
	login := flag.String("login", "", "Login name of the listening user")
	password := flag.String("password", "password123", "Password of the listening user")
	actorLogin := flag.String("actor-login", "", "Login name of the user that likes the photo (optional)")
	actorPassword := flag.String("actor-password", "password123", "Password of the acting user")
	photoID := flag.String("photo", "", "Photo of the listening user the actor toggles likes on")
	clients := flag.Int("clients", 10, "Number of concurrent websocket clients")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	flag.Parse()

	if *login == "" {
		log.Fatal("-login is required")
	}

	log.Printf("Starting notification probe against %s with %d clients for %v", *host, *clients, *duration)

	token, err := loginUser(*host, *login, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	var actorToken string
	if *actorLogin != "" && *photoID != "" {
		actorToken, err = loginUser(*host, *actorLogin, *actorPassword)
		if err != nil {
			log.Fatalf("Actor login failed: %v", err)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	if actorToken != "" {
		wg.Add(1)
		go runActor(*host, actorToken, *photoID, stopChan, &wg)
	}

	select {
	case <-time.After(*duration):
	case <-interrupt:
		log.Println("Interrupted")
	}
	close(stopChan)
	wg.Wait()
	printMetrics()
}

func loginUser(host, login, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"login_name": login, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := http.Post("http://"+host+"/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %s", resp.Status)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func runClient(host, token string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
		}
	}()

	<-stopChan
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func runActor(host, token, photoID string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	endpoint := "http://" + host + "/photos/" + url.PathEscape(photoID) + "/like"
	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			req, err := http.NewRequest(http.MethodPost, endpoint, nil)
			if err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			atomic.AddInt64(&metrics.LikeToggles, 1)
		}
	}
}

func printMetrics() {
	log.Println("Probe results")
	log.Printf("Connections attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Like toggles: %d", atomic.LoadInt64(&metrics.LikeToggles))
	log.Printf("Events received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Total errors: %d", atomic.LoadInt64(&metrics.Errors))
}
