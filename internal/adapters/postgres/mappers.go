package postgres

import "github.com/vowsmarket/settlement-service/internal/domain"

func paymentToModel(p domain.Payment) paymentModel {
	return paymentModel{
		PaymentID:      p.PaymentID,
		InvoiceID:      p.InvoiceID,
		InquiryID:      p.InquiryID,
		VendorID:       p.VendorID,
		PayerID:        p.PayerID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Method:         string(p.Method),
		Status:         string(p.Status),
		ProcessorRef:   p.ProcessorRef,
		FailureReason:  p.FailureReason,
		RefundedAmount: p.RefundedAmount,
		ProcessedAt:    p.ProcessedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func paymentFromModel(m paymentModel) domain.Payment {
	return domain.Payment{
		PaymentID:      m.PaymentID,
		InvoiceID:      m.InvoiceID,
		InquiryID:      m.InquiryID,
		VendorID:       m.VendorID,
		PayerID:        m.PayerID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Method:         domain.PaymentMethod(m.Method),
		Status:         domain.PaymentStatus(m.Status),
		ProcessorRef:   m.ProcessorRef,
		FailureReason:  m.FailureReason,
		RefundedAmount: m.RefundedAmount,
		ProcessedAt:    m.ProcessedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func holdToModel(h domain.EscrowHold) escrowHoldModel {
	return escrowHoldModel{
		HoldID:        h.HoldID,
		PaymentID:     h.PaymentID,
		InvoiceID:     h.InvoiceID,
		VendorID:      h.VendorID,
		Amount:        h.Amount,
		Currency:      h.Currency,
		WorkCompleted: h.WorkCompleted,
		Status:        string(h.Status),
		ReleaseMethod: string(h.ReleaseMethod),
		ReleaseReason: h.ReleaseReason,
		ReleasedBy:    h.ReleasedBy,
		ReleasedAt:    h.ReleasedAt,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
}

func holdFromModel(m escrowHoldModel) domain.EscrowHold {
	return domain.EscrowHold{
		HoldID:        m.HoldID,
		PaymentID:     m.PaymentID,
		InvoiceID:     m.InvoiceID,
		VendorID:      m.VendorID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		WorkCompleted: m.WorkCompleted,
		Status:        domain.HoldStatus(m.Status),
		ReleaseMethod: domain.ReleaseMethod(m.ReleaseMethod),
		ReleaseReason: m.ReleaseReason,
		ReleasedBy:    m.ReleasedBy,
		ReleasedAt:    m.ReleasedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func entryToModel(e domain.RevenueEntry) revenueEntryModel {
	return revenueEntryModel{
		EntryID:        e.EntryID,
		PaymentID:      e.PaymentID,
		InvoiceID:      e.InvoiceID,
		VendorID:       e.VendorID,
		EntryType:      string(e.EntryType),
		Amount:         e.Amount,
		Currency:       e.Currency,
		TransferStatus: string(e.TransferStatus),
		TransferredAt:  e.TransferredAt,
		CreatedAt:      e.CreatedAt,
	}
}

func entryFromModel(m revenueEntryModel) domain.RevenueEntry {
	return domain.RevenueEntry{
		EntryID:        m.EntryID,
		PaymentID:      m.PaymentID,
		InvoiceID:      m.InvoiceID,
		VendorID:       m.VendorID,
		EntryType:      domain.RevenueEntryType(m.EntryType),
		Amount:         m.Amount,
		Currency:       m.Currency,
		TransferStatus: domain.TransferStatus(m.TransferStatus),
		TransferredAt:  m.TransferredAt,
		CreatedAt:      m.CreatedAt,
	}
}

func transferToModel(t domain.Transfer) transferModel {
	return transferModel{
		TransferID:          t.TransferID,
		HoldID:              t.HoldID,
		PaymentID:           t.PaymentID,
		VendorID:            t.VendorID,
		Amount:              t.Amount,
		Currency:            t.Currency,
		Destination:         t.Destination,
		ProcessorTransferID: t.ProcessorTransferID,
		CreatedAt:           t.CreatedAt,
	}
}

func transferFromModel(m transferModel) domain.Transfer {
	return domain.Transfer{
		TransferID:          m.TransferID,
		HoldID:              m.HoldID,
		PaymentID:           m.PaymentID,
		VendorID:            m.VendorID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		Destination:         m.Destination,
		ProcessorTransferID: m.ProcessorTransferID,
		CreatedAt:           m.CreatedAt,
	}
}

func invoiceFromModel(m invoiceModel) domain.Invoice {
	return domain.Invoice{
		InvoiceID:   m.InvoiceID,
		InquiryID:   m.InquiryID,
		VendorID:    m.VendorID,
		UserID:      m.UserID,
		TotalAmount: m.TotalAmount,
		PaidAmount:  m.PaidAmount,
		Currency:    m.Currency,
		Status:      domain.InvoiceStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func vendorFromModel(m vendorModel) domain.Vendor {
	return domain.Vendor{
		VendorID:          m.VendorID,
		DisplayName:       m.DisplayName,
		PayoutDestination: m.PayoutDestination,
		PayoutsEnabled:    m.PayoutsEnabled,
	}
}
