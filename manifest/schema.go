package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource constrains a decoded manifest. Everything the generators
// paste into C as a symbol must be an identifier.
const schemaSource = `
#Ident: =~"^[A-Za-z_][A-Za-z0-9_]*$"

// Text pasted inside a C block comment.
#CommentText: string & !~"\\*/"

#Config: {
	license?: {
		holder?: #CommentText
		years?:  #CommentText
		file?:   string
	}
	interfaces?: {
		includes?: [...string & !=""]
		guard?:            #Ident
		"init-func"?:      #Ident
		"fini-func"?:      #Ident
		"strict-methods"?: bool
	}
	opcodes?: {
		prefix?:         #Ident
		guard?:          #Ident
		"offset-table"?: #Ident
		"name-table"?:   #Ident
		"index-table"?:  #Ident | ""
		"index-order"?:  "code" | "mnemonic"
		wrap?:           int & >=20 & <=200
	}
	output?: {
		"preserve-unchanged"?: bool
	}
}
`

// Validate checks m against the configuration schema.
func Validate(m *Manifest) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	config := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.Encode(m)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	if err := config.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// Preserve reports whether identical outputs are left untouched.
func (o Output) Preserve() bool {
	return o.PreserveUnchanged == nil || *o.PreserveUnchanged
}
