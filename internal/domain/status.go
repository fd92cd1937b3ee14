package domain

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentCard        PaymentMethod = "card"
	PaymentCheque      PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentMobileMoney, PaymentCard, PaymentCheque:
		return true
	default:
		return false
	}
}

type MovementType string

const (
	MovementEntry      MovementType = "ENTRY"
	MovementExit       MovementType = "EXIT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementEntry, MovementExit, MovementAdjustment:
		return true
	default:
		return false
	}
}

type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderReceived OrderStatus = "RECEIVED"
)

func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderReceived
}

type AlertPriority string

const (
	PriorityCritical AlertPriority = "CRITICAL"
	PriorityHigh     AlertPriority = "HIGH"
	PriorityMedium   AlertPriority = "MEDIUM"
	PriorityLow      AlertPriority = "LOW"
)

func (p AlertPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities for the alert queue, 1 being the most urgent.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	default:
		return 0
	}
}

type AlertStatus string

const (
	AlertUnread      AlertStatus = "UNREAD"
	AlertSeen        AlertStatus = "SEEN"
	AlertInProgress  AlertStatus = "IN_PROGRESS"
	AlertOrderPlaced AlertStatus = "ORDER_PLACED"
	AlertArchived    AlertStatus = "ARCHIVED"
)

// AllAlertStatuses lists statuses in lifecycle order.
var AllAlertStatuses = []AlertStatus{AlertUnread, AlertSeen, AlertInProgress, AlertOrderPlaced, AlertArchived}

// OpenAlertStatuses are the statuses an alert can still be linked to an order from.
var OpenAlertStatuses = []AlertStatus{AlertUnread, AlertSeen, AlertInProgress}

func (s AlertStatus) stage() int {
	switch s {
	case AlertUnread:
		return 1
	case AlertSeen:
		return 2
	case AlertInProgress:
		return 3
	case AlertOrderPlaced, AlertArchived:
		return 4
	default:
		return 0
	}
}

func (s AlertStatus) Valid() bool {
	return s.stage() > 0
}

func (s AlertStatus) Terminal() bool {
	return s == AlertOrderPlaced || s == AlertArchived
}

// Stamped reports whether entering s records the processed timestamp.
func (s AlertStatus) Stamped() bool {
	return s.Terminal()
}

// CanTransitionTo allows forward moves (or staying put) from a non-terminal status.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	return next.stage() >= s.stage()
}

// AlertSourcesFor returns every status from which next can be entered.
func AlertSourcesFor(next AlertStatus) []AlertStatus {
	sources := make([]AlertStatus, 0, len(AllAlertStatuses))
	for _, status := range AllAlertStatuses {
		if status.CanTransitionTo(next) {
			sources = append(sources, status)
		}
	}
	return sources
}

// AppendComment extends an alert comment trail.
func AppendComment(trail string, comment string) string {
	if comment == "" {
		return trail
	}
	if trail == "" {
		return comment
	}
	return trail + " | " + comment
}
