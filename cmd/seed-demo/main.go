// seed-demo loads a small demo data set: three partners with different
// commission structures, their split rules, and 120 days of synthetic orders
// processed through the normal split workflow so all derived tables fill in.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/empirehq/revenue_backend/workflow"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetCorrelationIdInContext(ctx, "seed-demo")

	partners := seedPartners(ctx)
	seedRules(ctx, partners)
	seedOrders(ctx, partners)

	fmt.Println("Demo seed complete")
}

func seedPartners(ctx context.Context) []*models.Partner {
	inputs := []models.NewPartner{
		{
			PartnerCode:           "ACME-AFF",
			PartnerName:           "Acme Affiliates",
			PartnerType:           models.PartnerTypeAffiliate,
			ContactEmail:          "payouts@acme-affiliates.example",
			DefaultCommissionRate: decPtr("12.5"),
		},
		{
			PartnerCode:   "NORTHWIND",
			PartnerName:   "Northwind Vendors",
			PartnerType:   models.PartnerTypeVendor,
			SplitType:     models.SplitTypeFlat,
			MinimumPayout: decPtr("100"),
		},
		{
			PartnerCode:         "GLOWUP",
			PartnerName:         "GlowUp Influencer Network",
			PartnerType:         models.PartnerTypeInfluencer,
			VerticalAssignments: []string{"beauty", "fashion"},
		},
	}

	out := make([]*models.Partner, 0, len(inputs))
	for i := range inputs {
		existing, err := models.GetPartnerByCode(ctx, inputs[i].PartnerCode)
		if err == nil {
			fmt.Printf("partner %s already exists (id=%d)\n", existing.PartnerCode, existing.ID)
			out = append(out, existing)
			continue
		}
		created, err := models.CreatePartner(ctx, &inputs[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create partner %s: %v\n", inputs[i].PartnerCode, err)
			os.Exit(1)
		}
		fmt.Printf("created partner %s (id=%d)\n", created.PartnerCode, created.ID)
		out = append(out, created)
	}
	return out
}

func seedRules(ctx context.Context, partners []*models.Partner) {
	acme, northwind, glowup := partners[0], partners[1], partners[2]

	rules := []models.NewSplitRule{
		{
			PartnerId: acme.ID,
			RuleName:  "Acme tiered electronics",
			SplitType: models.SplitTypeTiered,
			Priority:  10,
			Vertical:  strPtr("electronics"),
			CommissionStructure: models.CommissionStructure{
				Tiered: &models.TieredCommission{
					Tiers: []models.CommissionTier{
						{Min: dec("0"), Max: decPtr("100"), Type: models.TierRateTypePercentage, Rate: dec("5")},
						{Min: dec("100"), Max: decPtr("1000"), Type: models.TierRateTypePercentage, Rate: dec("10")},
						{Min: dec("1000"), Type: models.TierRateTypePercentage, Rate: dec("15")},
					},
				},
			},
		},
		{
			PartnerId: northwind.ID,
			RuleName:  "Northwind flat fulfillment fee",
			SplitType: models.SplitTypeFlat,
			Priority:  5,
			CommissionStructure: models.CommissionStructure{
				Flat: &models.FlatCommission{Amount: dec("7.5")},
			},
		},
		{
			PartnerId: glowup.ID,
			RuleName:  "GlowUp beauty percentage with bonuses",
			SplitType: models.SplitTypePercentage,
			Priority:  20,
			Vertical:  strPtr("beauty"),
			CommissionStructure: models.CommissionStructure{
				Percentage: &models.PercentageCommission{Rate: decPtr("18")},
			},
			PerformanceBonuses: &models.PerformanceBonuses{
				VolumeTiers: []models.VolumeBonusTier{
					{Threshold: dec("10000"), Rate: dec("1")},
					{Threshold: dec("50000"), Rate: dec("2")},
				},
				NewCustomerBonus: decPtr("5"),
			},
		},
	}

	for i := range rules {
		rule, err := models.CreateSplitRule(ctx, &rules[i])
		if err != nil {
			if utils.IsDuplicateEntryError(err) {
				continue
			}
			fmt.Fprintf(os.Stderr, "failed to create rule %q: %v\n", rules[i].RuleName, err)
			os.Exit(1)
		}
		fmt.Printf("created rule %q (id=%d)\n", rule.RuleName, rule.ID)
	}
}

func seedOrders(ctx context.Context, partners []*models.Partner) {
	rng := rand.New(rand.NewSource(42))
	verticals := map[int]string{0: "electronics", 1: "home", 2: "beauty"}
	created := 0

	for day := 120; day >= 1; day-- {
		date := time.Now().UTC().AddDate(0, 0, -day)
		orders := 2 + rng.Intn(4)
		for n := 0; n < orders; n++ {
			pi := rng.Intn(len(partners))
			partner := partners[pi]
			amount := decimal.NewFromFloat(20 + rng.Float64()*480).Round(2)
			input := models.SplitOrderInput{
				OrderId:         fmt.Sprintf("DEMO-%s-%d", date.Format("20060102"), n),
				PartnerId:       &partner.ID,
				OriginalAmount:  amount,
				Currency:        "USD",
				Vertical:        strPtr(verticals[pi]),
				IsNewCustomer:   rng.Intn(5) == 0,
				TransactionDate: &date,
			}
			if _, err := workflow.ProcessOrder(ctx, &input); err != nil {
				fmt.Fprintf(os.Stderr, "order %s failed: %v\n", input.OrderId, err)
				continue
			}
			created++
		}
	}
	fmt.Printf("processed %d demo orders\n", created)
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal {
	d, err := utils.ParseDecimal(s)
	utils.ErrorPanic(err)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
