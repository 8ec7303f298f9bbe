package model

// Vehicle is the directory record for a registered delivery vehicle.
// The directory is maintained by the fleet management surface; the hub only
// reads it to resolve telemetry to an owner and a driver.
type Vehicle struct {
	ID         string `bson:"_id" json:"id"`
	DriverName string `bson:"driverName" json:"driverName"`
	Model      string `bson:"model" json:"model"`
	CompanyID  string `bson:"companyId" json:"companyId"`
}

// Company is the directory record for a delivery company. AdminIDs lists
// the user ids of the admins who manage the company's dashboard.
type Company struct {
	ID       string   `bson:"_id" json:"id"`
	Name     string   `bson:"name" json:"name"`
	AdminIDs []string `bson:"adminIds" json:"adminIds,omitempty"`
}
