package client

import (
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
)

const (
	actionAuthenticate  = "authenticate"
	actionProducts      = "getProductDatabase"
	actionLocations     = "getLocations"
	actionCreate        = "createStocktake"
	actionList          = "listStocktakes"
	actionLoadUserScans = "loadUserScans"
	actionSyncScans     = "syncScans"
	actionDeleteScans   = "deleteScans"
)

// envelope is the common part of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type wireProduct struct {
	Barcode      string  `json:"barcode"`
	Product      string  `json:"product"`
	CurrentStock float64 `json:"currentStock"`
	Value        float64 `json:"value"`
}

type wireScan struct {
	SyncID        string     `json:"syncId"`
	Barcode       string     `json:"barcode"`
	Product       string     `json:"product"`
	Quantity      float64    `json:"quantity"`
	Location      string     `json:"location"`
	User          string     `json:"user"`
	StocktakeID   string     `json:"stocktakeId,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	StockLevel    *float64   `json:"stockLevel,omitempty"`
	Value         *float64   `json:"value,omitempty"`
	IsManualEntry bool       `json:"isManualEntry,omitempty"`
	LastModified  *time.Time `json:"lastModified,omitempty"`
}

type wireStocktake struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedBy    string    `json:"createdBy"`
	CreatedDate  time.Time `json:"createdDate"`
	LastModified time.Time `json:"lastModified"`
}

type productsResponse struct {
	envelope
	Products []wireProduct `json:"products"`
}

type locationsResponse struct {
	envelope
	Locations []string `json:"locations"`
}

type createResponse struct {
	envelope
	StocktakeID string `json:"stocktakeId"`
	Name        string `json:"name"`
	URL         string `json:"url"`
}

type listResponse struct {
	envelope
	Stocktakes []wireStocktake `json:"stocktakes"`
}

type scansResponse struct {
	envelope
	Scans []wireScan `json:"scans"`
}

type syncResponse struct {
	envelope
	SyncedIDs   []string `json:"syncedIds"`
	SyncedCount int      `json:"syncedCount"`
}

type deleteResponse struct {
	envelope
	DeletedIDs   []string `json:"deletedIds"`
	DeletedCount int      `json:"deletedCount"`
}

func toWireScan(r models.ScanRecord) wireScan {
	return wireScan{
		SyncID:        r.SyncID,
		Barcode:       r.Barcode,
		Product:       r.ProductName,
		Quantity:      r.Quantity,
		Location:      r.Location,
		User:          r.User,
		StocktakeID:   r.StocktakeID,
		Timestamp:     r.Timestamp,
		StockLevel:    r.StockLevel,
		Value:         r.Value,
		IsManualEntry: r.IsManualEntry,
		LastModified:  r.LastModified,
	}
}

// fromWireScan converts a downloaded scan. Remote records are already
// stored remotely, so they arrive synced.
func fromWireScan(w wireScan, stocktakeID string) models.ScanRecord {
	st := w.StocktakeID
	if st == "" {
		st = stocktakeID
	}
	return models.ScanRecord{
		SyncID:        w.SyncID,
		Barcode:       w.Barcode,
		ProductName:   w.Product,
		Quantity:      w.Quantity,
		Location:      w.Location,
		User:          w.User,
		StocktakeID:   st,
		Timestamp:     w.Timestamp.UTC(),
		StockLevel:    w.StockLevel,
		Value:         w.Value,
		IsManualEntry: w.IsManualEntry,
		LastModified:  w.LastModified,
		Synced:        true,
		Origin:        models.OriginServer,
		Revision:      1,
	}
}
