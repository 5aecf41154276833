// Package harness runs market scenarios as executable contract tests.
//
// A scenario names a market owner and opening balances, a list of setup
// calls that must succeed, a flow of calls with expected outcomes, and
// assertions over the resulting event trace and final state. Each scenario
// runs against a fresh in-memory store through the real engine.
//
// # Scenario Format
//
//	name: purchase_and_withdraw
//	description: "A buyer pays exactly price times quantity"
//	owner: owner
//	accounts:
//	  carol: "10"
//	setup:
//	  - op: add_administrator
//	    as: owner
//	    args: { principal: alice }
//	flow:
//	  - op: purchase_product
//	    as: carol
//	    value: "2"
//	    args: { store_id: 0, product_id: 0, quantity: "1" }
//	    expect:
//	      outcome: OK
//	      events: [ProductPurchased]
//	assertions:
//	  - type: trace_contains
//	    kind: ProductPurchased
//	    args: { buyer: carol }
//	  - type: final_state
//	    target: store
//	    where: { store_id: 0 }
//	    expect: { balance: "2" }
//
// Amounts are strings because they may exceed 64 bits. A flow step without
// an expect clause must succeed.
//
// # Assertion Types
//
//   - trace_contains: an event of kind whose args include the given args
//   - trace_order: the first events of each listed kind appear in order
//   - trace_count: exactly count events of kind
//   - final_state: fields of the market, a store, a product or a wallet
//   - verify: the stored log replays cleanly and custody covers balances
//
// # Deterministic Testing
//
// Call IDs come from a sequential generator ("call-1", "call-2", ...) and
// event seqs from the log's logical clock, so a scenario always yields the
// same trace. RunWithGolden compares that trace with
// testdata/golden/<name>.golden.
package harness
