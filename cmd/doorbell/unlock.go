package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/barnybug/doorbell/services/lock"
	"github.com/pkg/errors"
)

// the server holds the request open while the door is unlocked
var client = &http.Client{Timeout: 60 * time.Second}

func request(url string) (*lock.Response, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("%s: %s", url, resp.Status)
	}
	var ret lock.Response
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	return &ret, nil
}

func unlock(url string) {
	fmt.Println("Unlocking", url)
	resp, err := request(url)
	if err != nil {
		fmtFatalf("error: %s\n", err)
	}
	fmt.Println(resp.Message)
}
