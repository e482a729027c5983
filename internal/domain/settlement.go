package domain

// Settlement is the split of a succeeded payment into the platform's fee
// and the vendor's due amount.
type Settlement struct {
	PlatformFee  int64
	VendorAmount int64
}

// SplitAmount computes the settlement split in integer minor units. The fee
// rate is expressed in basis points (1000 = 10%) and the fee is rounded
// half-up; the vendor amount is the exact remainder so the two sides always
// sum to the original amount.
func SplitAmount(amount int64, feeBasisPoints int64) (Settlement, error) {
	if amount <= 0 {
		return Settlement{}, ErrInvalidAmount
	}
	if feeBasisPoints < 0 || feeBasisPoints > 10000 {
		return Settlement{}, ErrInvalidInput
	}
	fee := (amount*feeBasisPoints + 5000) / 10000
	return Settlement{
		PlatformFee:  fee,
		VendorAmount: amount - fee,
	}, nil
}
