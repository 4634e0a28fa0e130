package signer

import "net/url"

// QueryParams signs payload and renders it as a percent-encoded query
// string ready to append to a URL. Any caller-supplied "client_secret" key
// is dropped before signing and never emitted; the client id is added under
// "client_id" and the signature under signatureParam (DefaultSignatureParam
// when empty).
//
// Nested values are flattened with the same bracket-path rules as
// Canonicalize, and the final key set is sorted byte-wise ascending, so the
// output is reproducible. The query string is transport convenience only:
// the receiving side must re-verify against the decoded payload, not
// against this encoded form.
func (s *Signer) QueryParams(payload map[string]any, signatureParam string) (string, error) {
	if signatureParam == "" {
		signatureParam = DefaultSignatureParam
	}

	scrubbed := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == clientSecretParam {
			continue
		}
		scrubbed[k] = v
	}

	signature, err := s.Sign(scrubbed)
	if err != nil {
		return "", err
	}

	pairs, err := flattenMap("", scrubbed)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	for _, p := range pairs {
		values.Add(p.path, p.value)
	}
	values.Set(clientIDParam, s.clientID)
	values.Set(signatureParam, signature)

	// url.Values.Encode sorts keys byte-wise ascending, matching the
	// canonical ordering rule.
	return values.Encode(), nil
}
