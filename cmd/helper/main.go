// Command helper simulates one driver against a running dispatch service:
// it registers, logs in, goes online, streams location updates and
// auto-accepts the first offer it receives, then walks the trip through
// arrived, in_progress and done.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"flytaxi/internal/mylogger"
)

type offerEvent struct {
	Type string `json:"type"`
	Data struct {
		OrderID string  `json:"order_id"`
		Price   float64 `json:"price"`
	} `json:"data"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:3000", "dispatch service base URL")
	wsURL := flag.String("ws-url", "ws://localhost:3000/ws/drivers", "offer stream URL")
	accessCode := flag.String("access-code", "helper-code", "driver access code")
	lat := flag.Float64("lat", 50.4501, "starting latitude")
	lon := flag.Float64("lon", 30.5234, "starting longitude")
	flag.Parse()

	mylog := mylogger.New(mylogger.LevelInfo).Action("driver_helper")

	client := &http.Client{Timeout: 10 * time.Second}

	var reg struct {
		DriverID string `json:"driver_id"`
	}
	post(client, *baseURL+"/drivers", "", map[string]any{
		"name":        "helper",
		"access_code": *accessCode,
	}, &reg)
	mylog.Info("registered", "driver_id", reg.DriverID)
	mylog.Warn("driver must be approved by an operator before offers arrive", "driver_id", reg.DriverID)

	var login struct {
		Token string `json:"token"`
	}
	post(client, *baseURL+"/drivers/login", "", map[string]any{
		"driver_id":   reg.DriverID,
		"access_code": *accessCode,
	}, &login)
	mylog.Info("logged in")

	post(client, *baseURL+"/drivers/online", login.Token, nil, nil)
	post(client, *baseURL+"/drivers/location", login.Token, map[string]any{
		"coords": []float64{*lat, *lon},
	}, nil)
	mylog.Info("online", "lat", *lat, "lon", *lon)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+login.Token)
	conn, _, err := websocket.DefaultDialer.Dial(*wsURL, header)
	if err != nil {
		log.Fatalf("failed to connect to offer stream: %v", err)
	}
	defer conn.Close()
	mylog.Info("offer stream connected")

	go func() {
		for {
			var event offerEvent
			if err := conn.ReadJSON(&event); err != nil {
				mylog.Error("offer stream closed", err)
				return
			}
			mylog.Info("event received", "type", event.Type, "order_id", event.Data.OrderID)
			if event.Type != "order_offer" {
				continue
			}

			orderID := event.Data.OrderID
			post(client, fmt.Sprintf("%s/orders/%s/accept", *baseURL, orderID), login.Token, nil, nil)
			mylog.Info("accepted", "order_id", orderID)

			time.Sleep(2 * time.Second)
			post(client, fmt.Sprintf("%s/orders/%s/arrived", *baseURL, orderID), login.Token, nil, nil)
			time.Sleep(2 * time.Second)
			post(client, fmt.Sprintf("%s/orders/%s/start", *baseURL, orderID), login.Token, nil, nil)
			time.Sleep(5 * time.Second)
			post(client, fmt.Sprintf("%s/orders/%s/finish", *baseURL, orderID), login.Token, nil, nil)
			mylog.Info("trip finished", "order_id", orderID)
		}
	}()

	// drift around the starting point and keep the roster position fresh
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		*lat += (rand.Float64() - 0.5) / 1000
		*lon += (rand.Float64() - 0.5) / 1000
		post(client, *baseURL+"/drivers/location", login.Token, map[string]any{
			"coords": []float64{*lat, *lon},
		}, nil)
	}
}

func post(client *http.Client, url, token string, body any, out any) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("encode request for %s: %v", url, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		log.Fatalf("build request for %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("request %s returned %d", url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
