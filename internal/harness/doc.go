// Package harness replays recorded DX API conversations through the engine
// and checks the session after every step.
//
// # Scenario Format
//
//	name: create_and_submit
//	description: "Create a case, fill the form, submit it"
//	golden: true
//	steps:
//	  - call: login
//	  - call: create_case
//	    work_type_id: MyOrg-MyApp-Work-Request
//	    response: ../responses/request_form.json
//	    etag: '"1"'
//	    expect:
//	      status: open_action
//	      valid: false
//	      problems: [MyOrg-MyApp-Work-Request.Subject]
//	  - edits:
//	      MyOrg-MyApp-Work-Request.Subject: Address change
//	    submit: true
//	    response: ../responses/submitted.json
//	    expect:
//	      submission: { Subject: Address change }
//
// Within a step, edits are applied first, then the submission or call is
// sent. The reply comes from the response file; status makes it a failure.
// Every call is journaled to an in-memory store, and after the last step
// the journal is replayed to confirm it reproduces the live session.
package harness
