package zn

/*
Package zn is a client for the ZeroNorth orchestration REST API.

The package is organized around the small set of behaviors every workflow
against the API needs:

Client
    Authenticated HTTP access to the API root. Raw bodies come back as
    bytes; transport failures surface as *TransportError, distinct from
    application-level errors embedded in response bodies.

Classify
    Converts a raw response body into success (parsed JSON) or failure.
    The API signals errors by embedding a statusCode field in an otherwise
    200-shaped body; empty and non-JSON bodies classify as ErrEmptyResponse
    and ErrMalformedResponse.

Resolve / Ensure
    Name resolution with zero-one-or-error cardinality over
    case-insensitive exact matches, and the create-if-absent upsert built
    on top of it. EnsureDoubleCheck adds the best-effort double-lookup race
    mitigation for concurrent invocations.

RunPolicy / UploadIssues / ResumeJob / PollJob
    The job lifecycle: start a job from a policy, optionally upload a
    results file, resume, and poll to a terminal status. Polling is bounded
    by the caller's context deadline.

Walk / Collect
    Offset/limit pagination over list endpoints, preferring the collection
    count carried in the list envelope over the short-page heuristic.

Example usage:

    client := zn.NewClient(zn.DefaultAPIRoot, token, zn.WithLogger(logger))
    policyID, err := client.Ensure(ctx, zn.Policies, "nightly-sonarqube", payload)
    if err != nil {
        // handle
    }
    jobID, err := client.RunPolicy(ctx, policyID)
    if err != nil {
        // handle
    }
    ctx, cancel := context.WithTimeout(ctx, time.Hour)
    defer cancel()
    status, err := client.PollJob(ctx, jobID, 10*time.Second)
*/
