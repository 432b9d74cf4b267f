package notification

// Event types with a built-in template. Other types still dispatch and fall
// back to a generic message.
const (
	EventJobCreated       = "job_created"
	EventJobAssigned      = "job_assigned"
	EventJobUnassigned    = "job_unassigned"
	EventJobScheduled     = "job_scheduled"
	EventJobRescheduled   = "job_rescheduled"
	EventJobStatusChanged = "job_status_changed"
	EventJobCompleted     = "job_completed"
	EventJobCancelled     = "job_cancelled"
	EventJobOverdue       = "job_overdue"

	EventBidCreated   = "bid_created"
	EventBidSubmitted = "bid_submitted"
	EventBidAccepted  = "bid_accepted"
	EventBidRejected  = "bid_rejected"
	EventBidExpiring  = "bid_expiring"

	EventInvoiceCreated         = "invoice_created"
	EventInvoiceSent            = "invoice_sent"
	EventInvoicePaid            = "invoice_paid"
	EventInvoiceDueSoon         = "invoice_due_soon"
	EventInvoiceOverdue         = "invoice_overdue"
	EventInvoiceOverdue30Days   = "invoice_overdue_30days"
	EventInvoiceOverdue60Days   = "invoice_overdue_60days"
	EventInvoiceOverdue90Days   = "invoice_overdue_90days"
	EventPaymentReceived        = "payment_received"
	EventPaymentFailed          = "payment_failed"
	EventBudgetThresholdReached = "budget_threshold_reached"

	EventVehicleMaintenanceDue       = "vehicle_maintenance_due"
	EventVehicleMaintenanceOverdue   = "vehicle_maintenance_overdue"
	EventVehicleInspectionExpiring   = "vehicle_inspection_expiring"
	EventVehicleInspectionExpired    = "vehicle_inspection_expired"
	EventVehicleRegistrationExpiring = "vehicle_registration_expiring"
	EventVehicleAssigned             = "vehicle_assigned"

	EventTimesheetSubmitted = "timesheet_submitted"
	EventTimesheetApproved  = "timesheet_approved"
	EventTimesheetRejected  = "timesheet_rejected"
	EventTimesheetMissing   = "timesheet_missing"
	EventPayrollProcessed   = "payroll_processed"

	EventInventoryLowStock     = "inventory_low_stock"
	EventInventoryOutOfStock   = "inventory_out_of_stock"
	EventPurchaseOrderApproved = "purchase_order_approved"

	EventPropertyInspectionDue = "property_inspection_due"
	EventClientCreated         = "client_created"

	EventUserWelcome        = "user_welcome"
	EventPasswordReset      = "password_reset"
	EventSystemAnnouncement = "system_announcement"
)

// Entity types referenced by relatedEntityType.
const (
	EntityJob           = "job"
	EntityBid           = "bid"
	EntityInvoice       = "invoice"
	EntityPayment       = "payment"
	EntityBudget        = "budget"
	EntityVehicle       = "vehicle"
	EntityTimesheet     = "timesheet"
	EntityPayroll       = "payroll"
	EntityInventoryItem = "inventory_item"
	EntityPurchaseOrder = "purchase_order"
	EntityProperty      = "property"
	EntityClient        = "client"
	EntityEmployee      = "employee"
)

// entityRoutes maps an entity type to its in-app URL. {id} is replaced by
// the path-escaped entity id.
var entityRoutes = map[string]string{
	EntityJob:           "/jobs/{id}",
	EntityBid:           "/bids/{id}",
	EntityInvoice:       "/invoices/{id}",
	EntityPayment:       "/payments/{id}",
	EntityBudget:        "/budgets/{id}",
	EntityVehicle:       "/fleet/vehicles/{id}",
	EntityTimesheet:     "/timesheets/{id}",
	EntityPayroll:       "/payroll/runs/{id}",
	EntityInventoryItem: "/inventory/items/{id}",
	EntityPurchaseOrder: "/inventory/purchase-orders/{id}",
	EntityProperty:      "/properties/{id}",
	EntityClient:        "/clients/{id}",
	EntityEmployee:      "/employees/{id}",
}

var genericSegments = []segment{
	seg("You have a new notification"),
	seg(" regarding {entityName}"),
	seg("."),
}

func invoiceOverdue(days string) templateDescriptor {
	return templateDescriptor{
		Title: "Invoice " + days + " Days Overdue",
		Segments: []segment{
			segOr("Invoice {entityName}", "An invoice"),
			seg(" for {clientName}"),
			seg(" is now " + days + " days overdue"),
			seg(". Amount due: {amount|currency}"),
			seg(" (due {dueDate|date})"),
			seg("."),
		},
		Category:   CategoryInvoices,
		Priority:   PriorityHigh,
		EntityType: EntityInvoice,
	}
}

var eventTemplates = map[string]templateDescriptor{
	// Jobs
	EventJobCreated: {
		Title: "New Job Created",
		Segments: []segment{
			segOr("{entityName}", "A new job"),
			seg(" for {clientName}"),
			seg(" has been created"),
			seg(" and is scheduled for {scheduledDate|date}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityNormal, EntityType: EntityJob,
	},
	EventJobAssigned: {
		Title: "Job Assigned",
		Segments: []segment{
			seg("You have been assigned to "),
			segOr("{entityName}", "a job"),
			seg(" for {clientName}"),
			seg(" scheduled for {scheduledDate|date}"),
			seg(" at {address}"),
			seg("."),
		},
		Short: []segment{
			seg("Assigned: "),
			segOr("{entityName}", "new job"),
			seg(" ({clientName})"),
		},
		Category: CategoryJobs, Priority: PriorityHigh, EntityType: EntityJob,
	},
	EventJobUnassigned: {
		Title: "Job Unassigned",
		Segments: []segment{
			seg("You have been removed from "),
			segOr("{entityName}", "a job"),
			seg(" for {clientName}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityNormal, EntityType: EntityJob,
	},
	EventJobScheduled: {
		Title: "Job Scheduled",
		Segments: []segment{
			segOr("{entityName}", "A job"),
			seg(" for {clientName}"),
			seg(" has been scheduled"),
			seg(" for {scheduledDate|date}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityNormal, EntityType: EntityJob,
	},
	EventJobRescheduled: {
		Title: "Job Rescheduled",
		Segments: []segment{
			segOr("{entityName}", "A job"),
			seg(" for {clientName}"),
			seg(" has been rescheduled"),
			seg(" from {previousDate|date}"),
			seg(" to {scheduledDate|date}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityNormal, EntityType: EntityJob,
	},
	EventJobStatusChanged: {
		Title: "Job Status Updated",
		Segments: []segment{
			segOr("{entityName}", "A job"),
			seg(" for {clientName}"),
			seg(" changed status"),
			seg(" from {previousStatus}"),
			seg(" to {status}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityLow, EntityType: EntityJob,
	},
	EventJobCompleted: {
		Title: "Job Completed",
		Segments: []segment{
			segOr("{entityName}", "A job"),
			seg(" for {clientName}"),
			seg(" has been completed"),
			seg(" by {technicianName}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityNormal, EntityType: EntityJob,
	},
	EventJobCancelled: {
		Title: "Job Cancelled",
		Segments: []segment{
			segOr("{entityName}", "A job"),
			seg(" for {clientName}"),
			seg(" has been cancelled"),
			seg(". Reason: {reason}"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityHigh, EntityType: EntityJob,
	},
	EventJobOverdue: {
		Title: "Job Overdue",
		Segments: []segment{
			segOr("{entityName}", "A job"),
			seg(" for {clientName}"),
			seg(" is overdue"),
			seg(" by {daysOverdue|days}"),
			seg(". Please update its status or reschedule."),
		},
		Short: []segment{
			segOr("{entityName}", "A job"),
			seg(" is overdue"),
			seg(" by {daysOverdue|days}"),
		},
		Category: CategoryJobs, Priority: PriorityHigh, EntityType: EntityJob,
	},

	// Bids
	EventBidCreated: {
		Title: "New Bid Created",
		Segments: []segment{
			segOr("Bid {entityName}", "A new bid"),
			seg(" for {clientName}"),
			seg(" has been created"),
			seg(" totalling {amount|currency}"),
			seg("."),
		},
		Category: CategoryBids, Priority: PriorityLow, EntityType: EntityBid,
	},
	EventBidSubmitted: {
		Title: "Bid Submitted",
		Segments: []segment{
			segOr("Bid {entityName}", "A bid"),
			seg(" for {clientName}"),
			seg(" has been submitted"),
			seg(" for {amount|currency}"),
			seg("."),
		},
		Category: CategoryBids, Priority: PriorityNormal, EntityType: EntityBid,
	},
	EventBidAccepted: {
		Title: "Bid Accepted",
		Segments: []segment{
			segOr("Bid {entityName}", "A bid"),
			seg(" for {clientName}"),
			seg(" has been accepted"),
			seg(" ({amount|currency})"),
			seg("."),
		},
		Category: CategoryBids, Priority: PriorityHigh, EntityType: EntityBid,
	},
	EventBidRejected: {
		Title: "Bid Rejected",
		Segments: []segment{
			segOr("Bid {entityName}", "A bid"),
			seg(" for {clientName}"),
			seg(" has been rejected"),
			seg(". Reason: {reason}"),
			seg("."),
		},
		Category: CategoryBids, Priority: PriorityNormal, EntityType: EntityBid,
	},
	EventBidExpiring: {
		Title: "Bid Expiring Soon",
		Segments: []segment{
			segOr("Bid {entityName}", "A bid"),
			seg(" for {clientName}"),
			seg(" expires"),
			seg(" in {daysUntilDue|days}"),
			seg(" on {expirationDate|date}"),
			seg("."),
		},
		Category: CategoryBids, Priority: PriorityNormal, EntityType: EntityBid,
	},

	// Invoices and payments
	EventInvoiceCreated: {
		Title: "Invoice Created",
		Segments: []segment{
			segOr("Invoice {entityName}", "An invoice"),
			seg(" for {clientName}"),
			seg(" has been created"),
			seg(" for {amount|currency}"),
			seg(", due {dueDate|date}"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityLow, EntityType: EntityInvoice,
	},
	EventInvoiceSent: {
		Title: "Invoice Sent",
		Segments: []segment{
			segOr("Invoice {entityName}", "An invoice"),
			seg(" for {amount|currency}"),
			seg(" has been sent"),
			seg(" to {clientName}"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityLow, EntityType: EntityInvoice,
	},
	EventInvoicePaid: {
		Title: "Invoice Paid",
		Segments: []segment{
			segOr("Invoice {entityName}", "An invoice"),
			seg(" for {clientName}"),
			seg(" has been paid in full"),
			seg(" ({amount|currency})"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityNormal, EntityType: EntityInvoice,
	},
	EventInvoiceDueSoon: {
		Title: "Invoice Due Soon",
		Segments: []segment{
			segOr("Invoice {entityName}", "An invoice"),
			seg(" for {clientName}"),
			seg(" is due"),
			seg(" in {daysUntilDue|days}"),
			seg(" on {dueDate|date}"),
			seg(". Amount due: {amount|currency}"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityNormal, EntityType: EntityInvoice,
	},
	EventInvoiceOverdue: {
		Title: "Invoice Overdue",
		Segments: []segment{
			segOr("Invoice {entityName}", "An invoice"),
			seg(" for {clientName}"),
			seg(" is overdue"),
			seg(" by {daysOverdue|days}"),
			seg(". Amount due: {amount|currency}"),
			seg(" (due {dueDate|date})"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityHigh, EntityType: EntityInvoice,
	},
	EventInvoiceOverdue30Days: invoiceOverdue("30"),
	EventInvoiceOverdue60Days: invoiceOverdue("60"),
	EventInvoiceOverdue90Days: func() templateDescriptor {
		d := invoiceOverdue("90")
		d.Priority = PriorityUrgent
		return d
	}(),
	EventPaymentReceived: {
		Title: "Payment Received",
		Segments: []segment{
			seg("A payment"),
			seg(" of {amount|currency}"),
			seg(" was received"),
			seg(" from {clientName}"),
			seg(" for invoice {entityName}"),
			seg(" via {paymentMethod}"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityNormal, EntityType: EntityPayment,
	},
	EventPaymentFailed: {
		Title: "Payment Failed",
		Segments: []segment{
			seg("A payment"),
			seg(" of {amount|currency}"),
			seg(" from {clientName}"),
			seg(" for invoice {entityName}"),
			seg(" failed"),
			seg(": {reason}"),
			seg("."),
		},
		Category: CategoryInvoices, Priority: PriorityHigh, EntityType: EntityPayment,
	},
	EventBudgetThresholdReached: {
		Title: "Budget Threshold Reached",
		Segments: []segment{
			segOr("Budget {entityName}", "A budget"),
			seg(" has reached {percentage|percent} of its limit"),
			seg(" ({amount|currency} spent)"),
			seg("."),
		},
		Category: CategoryJobs, Priority: PriorityHigh, EntityType: EntityBudget,
	},

	// Fleet
	EventVehicleMaintenanceDue: {
		Title: "Vehicle Maintenance Due",
		Segments: []segment{
			segOr("{maintenanceType}", "Maintenance"),
			seg(" is due for "),
			segOr("{entityName}", "a vehicle"),
			seg(" ({licensePlate})"),
			seg(" on {dueDate|date}"),
			seg("."),
		},
		Category: CategoryFleet, Priority: PriorityNormal, EntityType: EntityVehicle,
	},
	EventVehicleMaintenanceOverdue: {
		Title: "Vehicle Maintenance Overdue",
		Segments: []segment{
			segOr("{maintenanceType}", "Maintenance"),
			seg(" for "),
			segOr("{entityName}", "a vehicle"),
			seg(" ({licensePlate})"),
			seg(" is overdue"),
			seg(" by {daysOverdue|days}"),
			seg("."),
		},
		Category: CategoryFleet, Priority: PriorityHigh, EntityType: EntityVehicle,
	},
	EventVehicleInspectionExpiring: {
		Title: "Vehicle Inspection Expiring",
		Segments: []segment{
			seg("The inspection for "),
			segOr("{entityName}", "a vehicle"),
			seg(" ({licensePlate})"),
			seg(" expires"),
			seg(" in {daysUntilDue|days}"),
			seg(" on {expirationDate|date}"),
			seg("."),
		},
		Category: CategoryFleet, Priority: PriorityNormal, EntityType: EntityVehicle,
	},
	EventVehicleInspectionExpired: {
		Title: "Vehicle Inspection Expired",
		Segments: []segment{
			seg("The inspection for "),
			segOr("{entityName}", "a vehicle"),
			seg(" ({licensePlate})"),
			seg(" expired"),
			seg(" on {expirationDate|date}"),
			seg(". The vehicle should not be driven until it is re-inspected."),
		},
		Category: CategoryFleet, Priority: PriorityUrgent, EntityType: EntityVehicle,
	},
	EventVehicleRegistrationExpiring: {
		Title: "Vehicle Registration Expiring",
		Segments: []segment{
			seg("The registration for "),
			segOr("{entityName}", "a vehicle"),
			seg(" ({licensePlate})"),
			seg(" expires"),
			seg(" on {expirationDate|date}"),
			seg("."),
		},
		Category: CategoryFleet, Priority: PriorityNormal, EntityType: EntityVehicle,
	},
	EventVehicleAssigned: {
		Title: "Vehicle Assigned",
		Segments: []segment{
			seg("You have been assigned "),
			segOr("{entityName}", "a vehicle"),
			seg(" ({licensePlate})"),
			seg("."),
		},
		Category: CategoryFleet, Priority: PriorityNormal, EntityType: EntityVehicle,
	},

	// Timesheets and payroll
	EventTimesheetSubmitted: {
		Title: "Timesheet Submitted",
		Segments: []segment{
			segOr("{employeeName}", "An employee"),
			seg(" submitted a timesheet"),
			seg(" for {periodStart|date}"),
			seg(" to {periodEnd|date}"),
			seg(" ({hours|number} hours)"),
			seg("."),
		},
		Category: CategoryTimesheets, Priority: PriorityNormal, EntityType: EntityTimesheet,
	},
	EventTimesheetApproved: {
		Title: "Timesheet Approved",
		Segments: []segment{
			seg("Your timesheet"),
			seg(" for {periodStart|date}"),
			seg(" to {periodEnd|date}"),
			seg(" has been approved"),
			seg(" by {approverName}"),
			seg("."),
		},
		Category: CategoryTimesheets, Priority: PriorityLow, EntityType: EntityTimesheet,
	},
	EventTimesheetRejected: {
		Title: "Timesheet Rejected",
		Segments: []segment{
			seg("Your timesheet"),
			seg(" for {periodStart|date}"),
			seg(" to {periodEnd|date}"),
			seg(" has been rejected"),
			seg(" by {approverName}"),
			seg(". Reason: {reason}"),
			seg(". Please correct and resubmit."),
		},
		Category: CategoryTimesheets, Priority: PriorityHigh, EntityType: EntityTimesheet,
	},
	EventTimesheetMissing: {
		Title: "Timesheet Missing",
		Segments: []segment{
			seg("No timesheet has been submitted"),
			seg(" for the period ending {periodEnd|date}"),
			seg(". Please submit it as soon as possible."),
		},
		Category: CategoryTimesheets, Priority: PriorityNormal, EntityType: EntityTimesheet,
	},
	EventPayrollProcessed: {
		Title: "Payroll Processed",
		Segments: []segment{
			seg("Payroll"),
			seg(" for {periodStart|date}"),
			seg(" to {periodEnd|date}"),
			seg(" has been processed"),
			seg(". Total: {amount|currency}"),
			seg("."),
		},
		Category: CategoryPayroll, Priority: PriorityNormal, EntityType: EntityPayroll,
	},

	// Inventory
	EventInventoryLowStock: {
		Title: "Low Stock Alert",
		Segments: []segment{
			segOr("{entityName}", "An inventory item"),
			seg(" is running low"),
			seg(": {stockLevel|number} remaining"),
			seg(" (reorder point {reorderPoint|number})"),
			seg("."),
		},
		Category: CategoryInventory, Priority: PriorityNormal, EntityType: EntityInventoryItem,
	},
	EventInventoryOutOfStock: {
		Title: "Out of Stock",
		Segments: []segment{
			segOr("{entityName}", "An inventory item"),
			seg(" is out of stock"),
			seg(" at {location}"),
			seg("."),
		},
		Category: CategoryInventory, Priority: PriorityHigh, EntityType: EntityInventoryItem,
	},
	EventPurchaseOrderApproved: {
		Title: "Purchase Order Approved",
		Segments: []segment{
			segOr("Purchase order {entityName}", "A purchase order"),
			seg(" for {vendorName}"),
			seg(" has been approved"),
			seg(" ({amount|currency})"),
			seg("."),
		},
		Category: CategoryInventory, Priority: PriorityNormal, EntityType: EntityPurchaseOrder,
	},

	// Properties and clients
	EventPropertyInspectionDue: {
		Title: "Property Inspection Due",
		Segments: []segment{
			seg("An inspection is due for "),
			segOr("{entityName}", "a property"),
			seg(" at {address}"),
			seg(" on {dueDate|date}"),
			seg("."),
		},
		Category: CategoryProperties, Priority: PriorityNormal, EntityType: EntityProperty,
	},
	EventClientCreated: {
		Title: "New Client Added",
		Segments: []segment{
			segOr("{clientName}", "A new client"),
			seg(" has been added"),
			seg(" by {createdByName}"),
			seg("."),
		},
		Category: CategoryClients, Priority: PriorityLow, EntityType: EntityClient,
	},

	// Account and system
	EventUserWelcome: {
		Title: "Welcome",
		Segments: []segment{
			segOr("Welcome, {fullName}!", "Welcome!"),
			seg(" Your account has been created."),
		},
		Category: CategoryAccount, Priority: PriorityLow,
	},
	EventPasswordReset: {
		Title: "Password Reset Requested",
		Segments: []segment{
			seg("A password reset was requested for your account"),
			seg(". This link expires in {expiresInMinutes|number} minutes"),
			seg(". If you did not request this, you can ignore this message."),
		},
		Category: CategoryAccount, Priority: PriorityHigh,
	},
	EventSystemAnnouncement: {
		Title: "System Announcement",
		Segments: []segment{
			segOr("{announcement}", "There is a new system announcement."),
		},
		Category: CategorySystem, Priority: PriorityNormal,
	},
}
