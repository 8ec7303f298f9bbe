package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

// VehicleDirectory reads vehicle records from the vehicles collection.
// Vehicle ids are the device-assigned identifiers the broker topics carry,
// stored directly as _id.
type VehicleDirectory struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (d *VehicleDirectory) Get(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var vehicle model.Vehicle
	err := d.coll.FindOne(ctx, bson.M{"_id": vehicleID}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("vehicle %s: %w", vehicleID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("find vehicle %s: %w", vehicleID, err)
	}
	return &vehicle, nil
}

// CompanyDirectory reads company records from the companies collection.
type CompanyDirectory struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (d *CompanyDirectory) Get(ctx context.Context, companyID string) (*model.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var company model.Company
	err := d.coll.FindOne(ctx, bson.M{"_id": companyID}).Decode(&company)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("company %s: %w", companyID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("find company %s: %w", companyID, err)
	}
	return &company, nil
}

// GetByAdmin resolves the company an admin user manages, used to bind an
// ADMIN dashboard connection to its company at handshake time.
func (d *CompanyDirectory) GetByAdmin(ctx context.Context, userID string) (*model.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var company model.Company
	err := d.coll.FindOne(ctx, bson.M{"adminIds": userID}).Decode(&company)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no company for admin %s: %w", userID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("find company by admin %s: %w", userID, err)
	}
	return &company, nil
}
