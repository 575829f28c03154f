package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondeval/pricing"
	"github.com/meenmo/bondeval/store"
)

type priceOutput struct {
	TaskID string `json:"task_id,omitempty"`
	*pricing.PriceResult
	Error string `json:"error,omitempty"`
}

type priceInput struct {
	TaskID string `json:"task_id,omitempty"`
	pricing.PriceRequest
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: pricebond -input <path>")
		fmt.Fprintln(os.Stderr, "Price fixed-rate bonds against explicit zero curves.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: pricebond -input <path>")
			os.Exit(2)
		}
	}

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}

	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := pricing.NewService(store.NewMemory(), logger)
	ctx := context.Background()

	hadError := false
	outputs := make([]priceOutput, 0, len(inputs))
	for _, in := range inputs {
		if len(in.Curve) == 0 {
			hadError = true
			outputs = append(outputs, priceOutput{TaskID: in.TaskID, Error: "curve is required"})
			continue
		}
		in.Market = ""
		in.Persist = false
		res, err := svc.PriceBond(ctx, in.PriceRequest)
		if err != nil {
			hadError = true
			outputs = append(outputs, priceOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		outputs = append(outputs, priceOutput{TaskID: in.TaskID, PriceResult: res})
	}

	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Println(string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Println(string(b))
	}

	if hadError {
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parseInputs(raw []byte) ([]priceInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []priceInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input priceInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []priceInput{input}, false, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(priceOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
