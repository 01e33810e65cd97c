package models

// VehicleConsumption aggregates total liters dispensed into one vehicle.
type VehicleConsumption struct {
	VehicleID string  `bson:"_id" json:"vehicle_id"`
	Liters    float64 `bson:"liters" json:"liters"`
	Refuels   int     `bson:"refuels" json:"refuels"`
}

// DriverConsumption aggregates total liters dispensed by one driver.
type DriverConsumption struct {
	DriverID string  `bson:"_id" json:"driver_id"`
	Liters   float64 `bson:"liters" json:"liters"`
	Refuels  int     `bson:"refuels" json:"refuels"`
}

// DailyConsumption aggregates liters dispensed on one calendar day.
type DailyConsumption struct {
	Day    string  `bson:"_id" json:"day"` // YYYY-MM-DD
	Liters float64 `bson:"liters" json:"liters"`
}
