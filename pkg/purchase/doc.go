// Package purchase turns a buyer's selection into a confirmed ledger payment.
//
// A purchase attempt moves through
//
//	Idle -> PriceResolved -> Signed -> Submitted -> Confirmed | Failed
//
// and ends in one of three outcomes or a *PurchaseError:
//
//   - OutcomeContactRequired: the selection is enterprise pricing. No
//     transaction is built; the outcome carries the contact label.
//   - OutcomeFreeActivated: the resolved price is zero. No transaction is
//     built and the ledger is never called.
//   - OutcomeConfirmed: the ledger included the payment. The buyer's
//     entitlement is refreshed right after confirmation.
//
// Failures are classified by ErrorKind (UserRejected, LedgerRejected,
// Timeout, Canceled, Transport) and are never retried: re-submitting a
// payment is always an explicit user action.
//
// The Coordinator holds no locks. Callers serialize attempts per user and
// service.
package purchase
