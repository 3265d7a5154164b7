package sigalg

import "testing"

func TestU_TLSServerEndpointDigest(t *testing.T) {
	tests := []struct {
		alg    SignatureAlgorithm
		want   DigestAlgorithm
		wantOK bool
	}{
		{RSAPKCS1MD2, 0, false},
		{RSAPKCS1MD4, 0, false},
		{RSAPKCS1MD5, SHA256, true},
		{RSAPKCS1SHA1, SHA256, true},
		{RSAPKCS1SHA256, SHA256, true},
		{RSAPKCS1SHA384, SHA384, true},
		{RSAPKCS1SHA512, SHA512, true},
		{ECDSASHA1, SHA256, true},
		{ECDSASHA256, SHA256, true},
		{ECDSASHA384, SHA384, true},
		{ECDSASHA512, SHA512, true},
		{DSASHA1, 0, false},
		{DSASHA256, 0, false},
		{RSAPSSSHA256, SHA256, true},
		{RSAPSSSHA384, SHA384, true},
		{RSAPSSSHA512, SHA512, true},
		{Unknown, 0, false},
	}

	covered := make(map[SignatureAlgorithm]bool)
	for _, tt := range tests {
		t.Run("[Unit] "+tt.alg.String(), func(t *testing.T) {
			got, ok := TLSServerEndpointDigest(tt.alg)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("TLSServerEndpointDigest(%v) = (%v, %v), want (%v, %v)", tt.alg, got, ok, tt.want, tt.wantOK)
			}
		})
		covered[tt.alg] = true
	}

	for _, alg := range All() {
		if !covered[alg] {
			t.Errorf("no expectation for %v", alg)
		}
	}
}

func TestU_TLSServerEndpointDigest_NeverWeak(t *testing.T) {
	for _, alg := range All() {
		d, ok := TLSServerEndpointDigest(alg)
		if ok && d == SHA1 {
			t.Errorf("%v binds with SHA-1", alg)
		}
	}
}

func TestU_TLSServerEndpointDigest_OutOfRangePanics(t *testing.T) {
	for _, alg := range []SignatureAlgorithm{numAlgorithms, -1, 1000} {
		t.Run("[Unit] "+alg.String(), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("TLSServerEndpointDigest(%d) did not panic", int(alg))
				}
			}()
			TLSServerEndpointDigest(alg)
		})
	}
}
