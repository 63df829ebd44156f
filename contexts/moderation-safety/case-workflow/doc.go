// Package caseworkflow implements the Case Workflow engine inside the
// moderation-safety context.
//
// The module owns the moderation case lifecycle (intake, assignment,
// review decisions, escalation, appeals, pattern linking), derived
// priority/quality scoring, and case-event production/consumption
// through outbox-backed workers. It keeps business rules in
// application/domain layers and isolates infrastructure concerns behind
// ports and adapters.
package caseworkflow
