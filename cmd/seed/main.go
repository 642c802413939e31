package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"telegram-pizza-shop/internal/config"
	"telegram-pizza-shop/internal/domain/ports/adapter"
	"telegram-pizza-shop/internal/infra/adapters/commerce"
)

// catalog is the seed input: the menu to publish and the fulfillment points
// to register in the restaurant flow.
type catalog struct {
	Products []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		PriceMinor  int64  `yaml:"price_minor"`
		SKU         string `yaml:"sku"`
		ImageURL    string `yaml:"image_url"`
	} `yaml:"products"`
	Restaurants []struct {
		Address   string  `yaml:"address"`
		Lon       float64 `yaml:"lon"`
		Lat       float64 `yaml:"lat"`
		CourierID int64   `yaml:"courier_id"`
	} `yaml:"restaurants"`
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	catalogPath := flag.String("catalog", "catalog.yaml", "path to the seed catalog")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	b, err := os.ReadFile(*catalogPath)
	if err != nil {
		log.Fatalf("read catalog: %v", err)
	}
	var cat catalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		log.Fatalf("parse catalog: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gateway := commerce.New(cfg.Commerce)
	tok, err := gateway.IssueToken(ctx)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	token := tok.Token

	// If the restaurant flow already has entries, do nothing.
	entries, err := gateway.Entries(ctx, token, cfg.Commerce.RestaurantFlow)
	if err == nil && len(entries) > 0 {
		fmt.Printf("%d restaurant entries already present. No changes.\n", len(entries))
		return
	}

	// ---- Restaurant flow ----
	flowID, err := gateway.CreateFlow(ctx, token, "Pizzeria", "Fulfillment points with coordinates and courier contacts")
	if err != nil {
		log.Fatalf("create flow: %v", err)
	}
	fields := []struct {
		Name string
		Type string
		Desc string
	}{
		{"Address", "string", "Street address of the restaurant"},
		{"Longitude", "float", "Longitude of the restaurant"},
		{"Latitude", "float", "Latitude of the restaurant"},
		{"Courier-id", "integer", "Telegram chat id of the on-duty courier"},
	}
	for _, f := range fields {
		if err := gateway.CreateFlowField(ctx, token, flowID, f.Name, f.Type, f.Desc); err != nil {
			log.Fatalf("create flow field %q: %v", f.Name, err)
		}
	}

	for _, r := range cat.Restaurants {
		err := gateway.CreateFlowEntry(ctx, token, cfg.Commerce.RestaurantFlow, map[string]any{
			"address":    r.Address,
			"longitude":  r.Lon,
			"latitude":   r.Lat,
			"courier-id": r.CourierID,
		})
		if err != nil {
			log.Fatalf("create restaurant entry %q: %v", r.Address, err)
		}
		fmt.Printf("seeded restaurant: %s\n", r.Address)
	}

	// ---- Address flow (empty, filled by the bot at runtime) ----
	addrFlowID, err := gateway.CreateFlow(ctx, token, "Customer Address", "Delivery coordinates reported by customers")
	if err != nil {
		log.Fatalf("create address flow: %v", err)
	}
	for _, f := range []struct{ Name, Type, Desc string }{
		{"Lon", "float", "Longitude of the delivery point"},
		{"Lat", "float", "Latitude of the delivery point"},
	} {
		if err := gateway.CreateFlowField(ctx, token, addrFlowID, f.Name, f.Type, f.Desc); err != nil {
			log.Fatalf("create address flow field %q: %v", f.Name, err)
		}
	}

	// ---- Products ----
	for _, p := range cat.Products {
		id, err := gateway.CreateProduct(ctx, token, adapter.NewProduct{
			Name:        p.Name,
			Description: p.Description,
			PriceMinor:  p.PriceMinor,
			Currency:    cfg.Commerce.Currency,
			SKU:         p.SKU,
		})
		if err != nil {
			log.Fatalf("create product %q: %v", p.Name, err)
		}
		if p.ImageURL != "" {
			fileID, err := gateway.CreateFile(ctx, token, p.ImageURL)
			if err != nil {
				log.Fatalf("upload image for %q: %v", p.Name, err)
			}
			if err := gateway.AttachMainImage(ctx, token, id, fileID); err != nil {
				log.Fatalf("attach image for %q: %v", p.Name, err)
			}
		}
		fmt.Printf("seeded product: %s (id=%s)\n", p.Name, id)
	}

	fmt.Println("✅ Seeding complete.")
}
