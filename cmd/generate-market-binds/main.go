// Command generate-market-binds writes typed go-ethereum bindings for the
// marketplace contract to pkg/blockchain/bindings.
//
//	go run ./cmd/generate-market-binds
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi/abigen"

	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
)

func main() {
	bindContent, err := abigen.Bind(
		[]string{"Marketplace"},
		[]string{blockchain.MarketABIJSON},
		[]string{""},
		nil, "bindings", nil, nil)
	if err != nil {
		log.Fatalf("Failed to generate binding: %v", err)
	}

	root, err := moduleRoot()
	if err != nil {
		log.Fatalf("Failed to locate module root: %v", err)
	}

	outDir := filepath.Join(root, "pkg", "blockchain", "bindings")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", outDir, err)
	}
	outPath := filepath.Join(outDir, "marketplace.go")
	if err := os.WriteFile(outPath, []byte(bindContent), 0o600); err != nil {
		log.Fatalf("Failed to write ABI binding: %v", err)
	}
	fmt.Println("wrote", outPath)
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", fmt.Errorf("go.mod not found from %q", dir)
		}
		dir = next
	}
}
