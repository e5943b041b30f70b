package testdata

// TestVector contains known input/output pairs for key derivation.
type TestVector struct {
	Name      string
	Algorithm string
	Password  string
	Salt      string // Hex
	Key       string // Hex
}

// Salt used by every vector: bytes 0x00..0x0f.
const Salt = "000102030405060708090a0b0c0d0e0f"

// Vectors contains known-answer vectors for the key derivation functions.
var Vectors = []TestVector{
	{
		Name:      "digest ascii passphrase",
		Algorithm: "sha256",
		Password:  "correct-horse-battery",
		Salt:      Salt,
		Key:       "4c63e81067123db53a0884a9251e8419a62ab8f5c9585be5f3f20666d7629650",
	},
	{
		Name:      "digest short password",
		Algorithm: "sha256",
		Password:  "password123",
		Salt:      Salt,
		Key:       "b5823f14ed68a9125eae8a7d8a88865cdf70a57ec6b4ed4f23375393d0a4d317",
	},
	{
		Name:      "digest unicode password",
		Algorithm: "sha256",
		Password:  "пароль1234",
		Salt:      Salt,
		Key:       "15f8ceb5b83f8d86be6e23450f7be831c11bb49e2aa802b8f57b77107c8bbca1",
	},
	{
		Name:      "pbkdf2 default iterations",
		Algorithm: "pbkdf2-sha256",
		Password:  "password123",
		Salt:      Salt,
		Key:       "43ed94b665686e9ca6f2e13a8dd27bd5a7bc585e2607789f1dc9ab9a416de21a",
	},
	{
		Name:      "scrypt default cost",
		Algorithm: "scrypt",
		Password:  "password123",
		Salt:      Salt,
		Key:       "9cc814ad1ba4d7974abb0621f2afbe1bc37aafde5f862dcf1a6c1fda58eb25a0",
	},
}
