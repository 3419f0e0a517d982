// Package dataset builds the synthetic retail pricing dataset the agent
// answers questions about and writes it to a relational store.
package dataset

import "github.com/retailagent/retailagent/internal/query/sqldb"

const (
	TableHistorical  = "historical_data"
	TableProductInfo = "current_product_information"
	TableForecast    = "forecast_data"
	TableInventory   = "inventory_data"
	TableCompetitor  = "competitior_information"
)

// DateLayout is how month dates are stored in every table.
const DateLayout = "2006-01-02"

type SKU struct {
	ID          int64
	ProductName string
	Category    string
}

var catalogProducts = []struct {
	category string
	products []string
}{
	{category: "men", products: []string{"shirt", "t-shirt", "jacket", "Jeans", "Trackpants"}},
	{category: "women", products: []string{"Dress", "Kurtas", "Tops", "t-shirt", "Jeans", "Trackpants"}},
	{category: "kids", products: []string{"shirt", "t-shirt", "jacket", "Jeans", "Trackpants", "Dress", "Kurtas", "Tops"}},
}

// Catalog lists every product/category combination. IDs start at zero and
// follow declaration order.
func Catalog() []SKU {
	skus := make([]SKU, 0, 19)
	var id int64
	for _, group := range catalogProducts {
		for _, product := range group.products {
			skus = append(skus, SKU{ID: id, ProductName: product, Category: group.category})
			id++
		}
	}
	return skus
}

type HistoricalRecord struct {
	SKUID             int64   `parquet:"sku_id"`
	ProductName       string  `parquet:"product_name"`
	Category          string  `parquet:"category"`
	Date              string  `parquet:"date"`
	UnitPrice         int64   `parquet:"unit_price"`
	UnitCost          int64   `parquet:"unit_cost"`
	DiscountPct       int64   `parquet:"discount_pct"`
	SeasonalityFactor float64 `parquet:"seasonality_factor"`
	UnitsSold         int64   `parquet:"units_sold"`
	Revenue           int64   `parquet:"revenue"`
	Profit            int64   `parquet:"profit"`
}

type ProductInfo struct {
	SKUID      int64   `parquet:"sku_id"`
	BasePrice  int64   `parquet:"base_price"`
	BaseDemand int64   `parquet:"base_demand"`
	Elasticity float64 `parquet:"elasticity"`
	Margin     float64 `parquet:"margin"`
}

type ForecastRecord struct {
	SKUID       int64  `parquet:"sku_id"`
	ProductName string `parquet:"product_name"`
	Category    string `parquet:"category"`
	Date        string `parquet:"date"`
	UnitsSale   int64  `parquet:"units_sale"`
}

type InventoryRecord struct {
	SKUID       int64  `parquet:"sku_id"`
	ProductName string `parquet:"product_name"`
	Category    string `parquet:"category"`
	Stock       int64  `parquet:"stock"`
}

type CompetitorRecord struct {
	SKUID       int64   `parquet:"sku_id"`
	ProductName string  `parquet:"product_name"`
	Category    string  `parquet:"category"`
	UnitPrice   float64 `parquet:"unit_price"`
	Promotion   string  `parquet:"promotion"`
	DiscountPct float64 `parquet:"discount_pct"`
}

type Dataset struct {
	Historical  []HistoricalRecord
	ProductInfo []ProductInfo
	Forecast    []ForecastRecord
	Inventory   []InventoryRecord
	Competitor  []CompetitorRecord
}

type Column struct {
	Name string
	Kind sqldb.ColumnKind
}

// Table is one generated table flattened for a SQL writer. Row values line
// up with Columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

var (
	historicalColumns = []Column{
		{Name: "sku_id", Kind: sqldb.KindInteger},
		{Name: "product_name", Kind: sqldb.KindText},
		{Name: "category", Kind: sqldb.KindText},
		{Name: "date", Kind: sqldb.KindText},
		{Name: "unit_price", Kind: sqldb.KindInteger},
		{Name: "unit_cost", Kind: sqldb.KindInteger},
		{Name: "discount_pct", Kind: sqldb.KindInteger},
		{Name: "seasonality_factor", Kind: sqldb.KindReal},
		{Name: "units_sold", Kind: sqldb.KindInteger},
		{Name: "revenue", Kind: sqldb.KindInteger},
		{Name: "profit", Kind: sqldb.KindInteger},
	}
	productInfoColumns = []Column{
		{Name: "sku_id", Kind: sqldb.KindInteger},
		{Name: "base_price", Kind: sqldb.KindInteger},
		{Name: "base_demand", Kind: sqldb.KindInteger},
		{Name: "elasticity", Kind: sqldb.KindReal},
		{Name: "margin", Kind: sqldb.KindReal},
	}
	forecastColumns = []Column{
		{Name: "sku_id", Kind: sqldb.KindInteger},
		{Name: "product_name", Kind: sqldb.KindText},
		{Name: "category", Kind: sqldb.KindText},
		{Name: "date", Kind: sqldb.KindText},
		{Name: "units_sale", Kind: sqldb.KindInteger},
	}
	inventoryColumns = []Column{
		{Name: "sku_id", Kind: sqldb.KindInteger},
		{Name: "product_name", Kind: sqldb.KindText},
		{Name: "category", Kind: sqldb.KindText},
		{Name: "stock", Kind: sqldb.KindInteger},
	}
	competitorColumns = []Column{
		{Name: "sku_id", Kind: sqldb.KindInteger},
		{Name: "product_name", Kind: sqldb.KindText},
		{Name: "category", Kind: sqldb.KindText},
		{Name: "unit_price", Kind: sqldb.KindReal},
		{Name: "promotion", Kind: sqldb.KindText},
		{Name: "discount_pct", Kind: sqldb.KindReal},
	}
)

// Tables returns the five tables in write order.
func (d Dataset) Tables() []Table {
	historical := make([][]any, 0, len(d.Historical))
	for _, r := range d.Historical {
		historical = append(historical, []any{
			r.SKUID, r.ProductName, r.Category, r.Date,
			r.UnitPrice, r.UnitCost, r.DiscountPct, r.SeasonalityFactor,
			r.UnitsSold, r.Revenue, r.Profit,
		})
	}
	productInfo := make([][]any, 0, len(d.ProductInfo))
	for _, r := range d.ProductInfo {
		productInfo = append(productInfo, []any{r.SKUID, r.BasePrice, r.BaseDemand, r.Elasticity, r.Margin})
	}
	forecast := make([][]any, 0, len(d.Forecast))
	for _, r := range d.Forecast {
		forecast = append(forecast, []any{r.SKUID, r.ProductName, r.Category, r.Date, r.UnitsSale})
	}
	inventory := make([][]any, 0, len(d.Inventory))
	for _, r := range d.Inventory {
		inventory = append(inventory, []any{r.SKUID, r.ProductName, r.Category, r.Stock})
	}
	competitor := make([][]any, 0, len(d.Competitor))
	for _, r := range d.Competitor {
		competitor = append(competitor, []any{r.SKUID, r.ProductName, r.Category, r.UnitPrice, r.Promotion, r.DiscountPct})
	}

	return []Table{
		{Name: TableHistorical, Columns: historicalColumns, Rows: historical},
		{Name: TableProductInfo, Columns: productInfoColumns, Rows: productInfo},
		{Name: TableForecast, Columns: forecastColumns, Rows: forecast},
		{Name: TableInventory, Columns: inventoryColumns, Rows: inventory},
		{Name: TableCompetitor, Columns: competitorColumns, Rows: competitor},
	}
}
