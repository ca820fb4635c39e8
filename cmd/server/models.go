package main

// API request and response models.

// SimulateRequest is the body of simulate and invoice creation. Acts is a
// pointer so a missing key can be told apart from an empty list: an empty
// list is a valid zero-priced simulation, a missing key is a client error.
type SimulateRequest struct {
	Acts       *[]string `json:"acts"`
	PatientID  *string   `json:"patientId,omitempty"`
	PatientAge *int      `json:"patientAge,omitempty"`
}

// TransitionRequest is the body of a lifecycle transition.
type TransitionRequest struct {
	Action string `json:"action"`
}

// ErrorResponse is the uniform error envelope: a machine code, the
// offending field when one exists, and a human message.
type ErrorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
