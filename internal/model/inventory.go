package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// InventoryRecord is an existing unit in the inventory book
type InventoryRecord struct {
	ID          string    `json:"id" db:"id"`
	ProjectName *string   `json:"projectName,omitempty" db:"project_name"`
	Block       *string   `json:"block,omitempty" db:"block"`
	UnitNumber  *string   `json:"unitNumber,omitempty" db:"unit_number"`
	Category    *string   `json:"category,omitempty" db:"category"`
	SubCategory *string   `json:"subCategory,omitempty" db:"sub_category"`
	Size        *string   `json:"size,omitempty" db:"size"`
	SizeUnit    *string   `json:"sizeUnit,omitempty" db:"size_unit"`
	Price       *string   `json:"price,omitempty" db:"price"`
	City        *string   `json:"city,omitempty" db:"city"`
	Sector      *string   `json:"sector,omitempty" db:"sector"`
	Area        *string   `json:"area,omitempty" db:"area"`
	Owners      JSONArray `json:"owners,omitempty" db:"owners"`
	Address     JSONMap   `json:"address,omitempty" db:"address"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// AreaText joins the project, sector and area fields used for locality matching.
func (r *InventoryRecord) AreaText() string {
	text := ""
	for _, s := range []*string{r.ProjectName, r.Sector, r.Area} {
		if s == nil || *s == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += *s
	}
	if locality, ok := r.Address["locality"].(string); ok && locality != "" {
		if text != "" {
			text += " "
		}
		text += locality
	}
	return text
}

// InventoryMatch is one scored inventory candidate for a parsed deal.
type InventoryMatch struct {
	Inventory InventoryRecord `json:"inventory"`
	Score     int             `json:"score"`
	Reasons   []string        `json:"reasons"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	return scanJSON(value, j)
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	return scanJSON(value, j)
}

// Value implements driver.Valuer so details can be stored as JSONB
func (p PropertyDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface
func (p *PropertyDetails) Scan(value interface{}) error {
	return scanJSON(value, p)
}

func scanJSON(value interface{}, target interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, target)
	case string:
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
