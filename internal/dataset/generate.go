package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	discountChoices = []int64{0, 10, 20, 30}
	discountWeights = []float64{0.5, 0.2, 0.2, 0.1}

	competitorMultipliers = []float64{0.8, 0.9, 1.1, 1.2}

	promotionChoices = []string{"NONE", "0.1", "0.2", "BOGO", "BTGO"}
	promotionWeights = []float64{0.2, 0.1, 0.1, 0.3, 0.3}

	promotionDiscount = map[string]float64{
		"NONE": 0,
		"0.1":  0.1,
		"0.2":  0.2,
		"BOGO": 0.5,
		"BTGO": 0.3,
	}
)

type skuMetadata struct {
	basePrice  int64
	baseDemand int64
	elasticity float64
	margin     float64
}

// Generate builds the whole dataset from a single seeded source, so equal
// configs yield equal datasets.
func Generate(cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	skus := selectSKUs(cfg.SKUIDs)
	months := monthRange(cfg.Start, cfg.End)
	if len(skus) == 0 || len(months) == 0 {
		return Dataset{}, fmt.Errorf("no sku/month combinations to generate")
	}
	rnd := rand.New(rand.NewSource(cfg.Seed))

	metadata := make(map[int64]skuMetadata, len(skus))
	productInfo := make([]ProductInfo, 0, len(skus))
	for _, sku := range skus {
		elasticity := -float64(randInt(rnd, 80, 120)) / 100
		meta := skuMetadata{
			basePrice:  randInt(rnd, 100, 200) * 10,
			baseDemand: (randInt(rnd, 100, 1000) / 100) * 100,
			elasticity: elasticity,
			margin:     round2(-1 / elasticity),
		}
		metadata[sku.ID] = meta
		productInfo = append(productInfo, ProductInfo{
			SKUID:      sku.ID,
			BasePrice:  meta.basePrice,
			BaseDemand: meta.baseDemand,
			Elasticity: meta.elasticity,
			Margin:     meta.margin,
		})
	}

	ds := Dataset{ProductInfo: productInfo}
	var forecastKeys []ForecastRecord
	for _, sku := range skus {
		meta := metadata[sku.ID]
		for _, month := range months {
			if month.After(cfg.Cutoff) {
				// Forecast months consume the same draws as historical ones.
				_ = salesRecord(rnd, sku, meta, month)
				forecastKeys = append(forecastKeys, ForecastRecord{
					SKUID:       sku.ID,
					ProductName: sku.ProductName,
					Category:    sku.Category,
					Date:        month.Format(DateLayout),
				})
				continue
			}
			ds.Historical = append(ds.Historical, salesRecord(rnd, sku, meta, month))
		}
	}

	meanUnits, meanPrice := historicalMeans(ds.Historical)
	for _, record := range forecastKeys {
		record.UnitsSale = int64(math.RoundToEven(meanUnits[record.SKUID]))
		ds.Forecast = append(ds.Forecast, record)
	}

	for _, sku := range skus {
		mean, ok := meanUnits[sku.ID]
		if !ok {
			continue
		}
		ds.Inventory = append(ds.Inventory, InventoryRecord{
			SKUID:       sku.ID,
			ProductName: sku.ProductName,
			Category:    sku.Category,
			Stock:       int64(math.RoundToEven(mean)) * randInt(rnd, 2, 4),
		})
	}

	for _, sku := range skus {
		mean, ok := meanPrice[sku.ID]
		if !ok {
			continue
		}
		multiplier := competitorMultipliers[rnd.Intn(len(competitorMultipliers))]
		ds.Competitor = append(ds.Competitor, CompetitorRecord{
			SKUID:       sku.ID,
			ProductName: sku.ProductName,
			Category:    sku.Category,
			UnitPrice:   math.RoundToEven(math.RoundToEven(mean) * multiplier),
		})
	}
	for i := range ds.Competitor {
		promotion := promotionChoices[weightedIndex(rnd, promotionWeights)]
		discount := promotionDiscount[promotion]
		ds.Competitor[i].Promotion = promotion
		ds.Competitor[i].DiscountPct = discount
		ds.Competitor[i].UnitPrice *= 1 - discount
	}

	return ds, nil
}

func salesRecord(rnd *rand.Rand, sku SKU, meta skuMetadata, month time.Time) HistoricalRecord {
	unitCost := int64(math.RoundToEven(float64(meta.basePrice) / (1 + meta.margin)))
	price := meta.basePrice + randInt(rnd, -10, 9)
	discount := discountChoices[weightedIndex(rnd, discountWeights)]
	unitPrice := int64(math.RoundToEven(float64(price) * (1 - float64(discount)/100)))

	seasonality := seasonalityFactor(month.Month())
	boost := 1.0
	if discount > 0 {
		boost = 1.2
	}
	unitsSold := int64(math.RoundToEven(100 * (500 / float64(unitPrice)) * seasonality * boost))

	return HistoricalRecord{
		SKUID:             sku.ID,
		ProductName:       sku.ProductName,
		Category:          sku.Category,
		Date:              month.Format(DateLayout),
		UnitPrice:         unitPrice,
		UnitCost:          unitCost,
		DiscountPct:       discount,
		SeasonalityFactor: seasonality,
		UnitsSold:         unitsSold,
		Revenue:           unitPrice * unitsSold,
		Profit:            (unitPrice - unitCost) * unitsSold,
	}
}

func seasonalityFactor(month time.Month) float64 {
	switch month {
	case time.November, time.December:
		return 1.3
	case time.June, time.July, time.August:
		return 1.1
	default:
		return 0.9
	}
}

func historicalMeans(rows []HistoricalRecord) (map[int64]float64, map[int64]float64) {
	type totals struct {
		units float64
		price float64
		count float64
	}
	sums := map[int64]*totals{}
	for _, row := range rows {
		t, ok := sums[row.SKUID]
		if !ok {
			t = &totals{}
			sums[row.SKUID] = t
		}
		t.units += float64(row.UnitsSold)
		t.price += float64(row.UnitPrice)
		t.count++
	}
	units := make(map[int64]float64, len(sums))
	prices := make(map[int64]float64, len(sums))
	for id, t := range sums {
		units[id] = t.units / t.count
		prices[id] = t.price / t.count
	}
	return units, prices
}

func selectSKUs(ids []int64) []SKU {
	catalog := Catalog()
	if len(ids) == 0 {
		return catalog
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]SKU, 0, len(ids))
	for _, sku := range catalog {
		if wanted[sku.ID] {
			selected = append(selected, sku)
		}
	}
	return selected
}

// firstMonth returns the first month start on or after start.
func firstMonth(start time.Time) time.Time {
	start = start.UTC()
	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if month.Before(start) {
		month = month.AddDate(0, 1, 0)
	}
	return month
}

// monthRange returns every month start in [start, end].
func monthRange(start, end time.Time) []time.Time {
	end = end.UTC()
	month := firstMonth(start)
	var months []time.Time
	for !month.After(end) {
		months = append(months, month)
		month = month.AddDate(0, 1, 0)
	}
	return months
}

// randInt draws uniformly from the closed range [low, high].
func randInt(rnd *rand.Rand, low, high int64) int64 {
	return low + rnd.Int63n(high-low+1)
}

func weightedIndex(rnd *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := rnd.Float64() * total
	for i, w := range weights {
		if target < w {
			return i
		}
		target -= w
	}
	return len(weights) - 1
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
