// Package harness runs scripted query sessions and checks their transcripts.
//
// A scenario names a schema, a list of query lines with optional
// expectations, and assertions on the calls that reached the server and on
// the rows written to the query journal. Each run uses a fresh in-memory
// journal, a stepping clock and sequential request ids, so transcripts are
// reproducible and can be compared against golden files.
//
// # Scenario Format
//
//	name: shop_orders
//	description: "Nested structs travel both ways"
//	schema: shop              # bundled fixture, or schema_file / schema_source
//	rpc_path: shop
//	steps:
//	  - query: getQuantity(item={product={id=1}, quantity=3})
//	    expect:
//	      output: "3"
//	  - query: getQuantity(item={product={id=1}})
//	    expect:
//	      code: MISSING_ARGUMENT
//	      error: "missing argument 'quantity'"
//	assertions:
//	  - type: call_count
//	    function: getQuantity
//	    count: 1
//	  - type: journal_row
//	    table: queries
//	    where: { seq: 2 }
//	    expect: { status: "error" }
//
// # Assertion Types
//
//   - call_contains: a call to function was received with matching args (subset match)
//   - call_order: functions were first called in the given order
//   - call_count: function was called exactly count times
//   - journal_row: exactly one journal row matches where and carries expect
//
// Call assertions need the bundled server (the default). When a scenario
// runs against a live endpoint only step expectations and journal
// assertions are checked.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/person_basic.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
