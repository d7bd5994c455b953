package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer converts text to a token count. Implementations must be safe for
// concurrent use by the worker pool.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	Name() string
	Close()
}

// --- Tiktoken Wrapper ---

type TiktokenWrapper struct {
	ttk  *tiktoken.Tiktoken
	name string
}

func (w *TiktokenWrapper) CountTokens(text string) (int, error) {
	if w.ttk == nil {
		return 0, fmt.Errorf("tiktoken encoding not initialized")
	}
	return len(w.ttk.EncodeOrdinary(text)), nil
}

func (w *TiktokenWrapper) Name() string { return w.name }

func (w *TiktokenWrapper) Close() {}

// --- HuggingFace (sugarme) Wrapper ---

// HFTokenizerWrapper serialises access; sugarme/tokenizer makes no concurrency promises.
type HFTokenizerWrapper struct {
	mu   sync.Mutex
	htk  *hf.Tokenizer
	name string
}

func (w *HFTokenizerWrapper) CountTokens(text string) (int, error) {
	if w.htk == nil {
		return 0, fmt.Errorf("huggingface tokenizer not initialized")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	en, err := w.htk.EncodeSingle(text)
	if err != nil {
		return 0, fmt.Errorf("huggingface encode: %w", err)
	}
	return len(en.Tokens), nil
}

func (w *HFTokenizerWrapper) Name() string { return w.name }

func (w *HFTokenizerWrapper) Close() {}

// --- Tokenizer Loading Logic ---

const (
	fallbackEncoding = "cl100k_base" // used when tiktoken does not know the model
	defaultHFModel   = "gpt2"
)

// getTokenizer returns the tokenizer selected by cfg. Notices about fallbacks
// are written to notices.
func getTokenizer(cfg Config, notices io.Writer) (Tokenizer, error) {
	switch strings.ToLower(cfg.TokenizerType) {
	case "", "tiktoken":
		return loadTiktoken(cfg.Model, cfg.Offline, notices)
	case "huggingface":
		return loadHuggingFace(cfg.Model, cfg.TokenizerFile, notices)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", cfg.TokenizerType)
	}
}

func loadTiktoken(model string, offline bool, notices io.Writer) (Tokenizer, error) {
	if offline {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	}
	if model == "" {
		model = defaultModel
	}

	encoding, known := encodingForModel(model)
	if !known {
		fmt.Fprintf(notices, "Model '%s' not found. Using '%s' encoding.\n", model, fallbackEncoding)
		tke, err := tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding '%s': %w", fallbackEncoding, err)
		}
		return &TiktokenWrapper{ttk: tke, name: "tiktoken[" + fallbackEncoding + "]"}, nil
	}

	// A known model whose encoding cannot be loaded is a setup failure, not an unknown model.
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		if offline {
			return nil, fmt.Errorf("encoding '%s' for model '%s' is not available offline: %w", encoding, model, err)
		}
		return nil, fmt.Errorf("failed to load encoding '%s' for model '%s': %w", encoding, model, err)
	}
	return &TiktokenWrapper{ttk: tke, name: "tiktoken[" + model + "]"}, nil
}

// encodingForModel resolves a model name to its tiktoken encoding, by exact
// name first and then by the longest matching prefix.
func encodingForModel(model string) (string, bool) {
	if encoding, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return encoding, true
	}
	var encoding, bestPrefix string
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			encoding, bestPrefix = enc, prefix
		}
	}
	return encoding, bestPrefix != ""
}

func loadHuggingFace(model, tokenizerFile string, notices io.Writer) (Tokenizer, error) {
	if tokenizerFile != "" {
		ttk, err := pretrained.FromFile(tokenizerFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer from file %s: %w", tokenizerFile, err)
		}
		return &HFTokenizerWrapper{htk: ttk, name: "huggingface[" + tokenizerFile + "]"}, nil
	}

	// The tiktoken default model name means nothing on the Hub.
	if model == "" || model == defaultModel {
		model = defaultHFModel
		fmt.Fprintf(notices, "No HuggingFace model specified, using default: %s\n", model)
	}

	configFilePath, err := hf.CachedPath(model, "tokenizer.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
	}
	ttk, err := pretrained.FromFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pretrained tokenizer for model %s (from %s): %w", model, configFilePath, err)
	}
	return &HFTokenizerWrapper{htk: ttk, name: "huggingface[" + model + "]"}, nil
}
