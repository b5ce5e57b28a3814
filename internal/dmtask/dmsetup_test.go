// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dmtask

import "testing"

func TestFormatTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table Table
		want  string
	}{
		{
			name:  "single linear target",
			table: Table{{Start: 0, Length: 2048, Type: "linear", Params: "253:0 0"}},
			want:  "0 2048 linear 253:0 0",
		},
		{
			name: "two targets joined by newline",
			table: Table{
				{Start: 0, Length: 1024, Type: "linear", Params: "253:0 0"},
				{Start: 1024, Length: 1024, Type: "linear", Params: "253:1 0"},
			},
			want: "0 1024 linear 253:0 0\n1024 1024 linear 253:1 0",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatTable(tt.table); got != tt.want {
				t.Errorf("formatTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInfoLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		out     []byte
		want    Info
		wantErr bool
	}{
		{
			name: "live node",
			out:  []byte("Active:0:253:7\n"),
			want: Info{Exists: true, Suspended: false, OpenCount: 0, Major: 253, Minor: 7},
		},
		{
			name: "suspended and open",
			out:  []byte("Suspended:2:253:12"),
			want: Info{Exists: true, Suspended: true, OpenCount: 2, Major: 253, Minor: 12},
		},
		{
			name:    "malformed line",
			out:     []byte("garbage"),
			wantErr: true,
		},
		{
			name:    "non-numeric open count",
			out:     []byte("Active:x:253:7"),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseInfoLine(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseInfoLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("parseInfoLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
