package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/azure/answer-engine-bot/internal/adapters"
	"github.com/azure/answer-engine-bot/internal/config"
)

const probeQuestion = "In one sentence, what is a brand visibility report?"

func main() {
	fmt.Println("🔍 Answer Engine Bot - Adapter Connectivity Test")
	fmt.Println("================================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("\n📡 Testing answer engines...")
	fmt.Println(strings.Repeat("-", 40))

	for _, adapter := range adapters.NewFromConfig(cfg) {
		testAdapter(adapter)
	}

	fmt.Println("\n✅ Adapter connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing API keys in .env file")
	fmt.Println("   • Run full bot with: make run")
}

func testAdapter(adapter adapters.Adapter) {
	fmt.Printf("🔸 Testing %s... ", adapter.GetName())

	if !adapter.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	answer := adapter.ExecuteQuery(ctx, probeQuestion)
	if answer.Content == "" {
		fmt.Printf("❌ ERROR: %s\n", answer.ErrorMessage())
		return
	}

	fmt.Printf("✅ SUCCESS (%s, %d tokens, %dms)\n", answer.Model, answer.TokensUsed, answer.ResponseTimeMs)
	fmt.Printf("   📝 Sample: \"%s\"\n", sample(answer.Content, 120))

	if extractor, ok := adapter.(adapters.NativeCitationExtractor); ok {
		fmt.Printf("   🔗 Native citations: %d\n", len(extractor.ExtractNativeCitations(answer.NativePayload)))
	}
}

func sample(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
