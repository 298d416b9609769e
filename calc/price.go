package calc

// EnergyKWh is the energy used by a load drawing kW for the given hours.
func EnergyKWh(kW, hours float64) float64 {
	return kW * hours
}

func Cost(kWh, pricePerKWh float64) float64 {
	return kWh * pricePerKWh
}
