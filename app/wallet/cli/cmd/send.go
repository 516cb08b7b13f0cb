package cmd

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	english "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/cobra"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

var (
	toPath string
	value  uint64
	fee    uint64
)

// sendRequest is the validated shape of a send command invocation.
type sendRequest struct {
	To    string `validate:"required,file"`
	Value uint64 `validate:"required,gt=0"`
	Fee   uint64 `validate:"gte=0"`
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send value to another wallet's public key",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&nodeAddr, "node", "n", "127.0.0.1:9080", "Address of the node.")
	sendCmd.Flags().StringVarP(&toPath, "to", "t", "", "Path to the recipient's public key (SPKI/PEM).")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Amount to send, in satoshis.")
	sendCmd.Flags().Uint64VarP(&fee, "fee", "f", 0, "Fee to attach, in satoshis.")
}

func sendRun(cmd *cobra.Command, args []string) {
	req := sendRequest{To: toPath, Value: value, Fee: fee}
	if err := validateRequest(req); err != nil {
		log.Fatalf("invalid send request: %s", err)
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	recipient, err := loadPublicKey(req.To)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := net.Dial("tcp", nodeAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	tx, err := buildTransaction(conn, privateKey, recipient, req.Value, req.Fee)
	if err != nil {
		log.Fatal(err)
	}

	if err := wire.WriteFrame(conn, &wire.SubmitTransaction{Tx: tx}); err != nil {
		log.Fatal(err)
	}

	txHash, err := tx.Hash()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("submitted transaction:", txHash)
}

// buildTransaction fetches the sender's spendable UTXOs, greedily selects
// enough to cover value+fee, and assembles a signed transaction paying
// recipient plus any change back to the sender.
func buildTransaction(conn net.Conn, sender signature.PrivateKey, recipient signature.PublicKey, value, fee uint64) (coin.Transaction, error) {
	if err := wire.WriteFrame(conn, &wire.FetchUTXOs{PK: sender.Public()}); err != nil {
		return coin.Transaction{}, fmt.Errorf("requesting utxos: %w", err)
	}

	msg, err := wire.ReadFrame(conn)
	if err != nil {
		return coin.Transaction{}, fmt.Errorf("reading utxos: %w", err)
	}
	utxos, ok := msg.(*wire.UTXOs)
	if !ok {
		return coin.Transaction{}, fmt.Errorf("unexpected reply type %T", msg)
	}

	need := value + fee
	var selected []coin.TransactionOutput
	var total uint64
	for _, e := range utxos.Entries {
		if e.Marked {
			continue
		}
		selected = append(selected, e.Output)
		total += e.Output.Value
		if total >= need {
			break
		}
	}
	if total < need {
		return coin.Transaction{}, fmt.Errorf("insufficient spendable balance: have %d, need %d", total, need)
	}

	inputs := make([]coin.TransactionInput, len(selected))
	for i, out := range selected {
		outHash, err := out.Hash()
		if err != nil {
			return coin.Transaction{}, fmt.Errorf("hashing utxo: %w", err)
		}
		in, err := coin.NewInput(outHash, sender)
		if err != nil {
			return coin.Transaction{}, fmt.Errorf("signing input: %w", err)
		}
		inputs[i] = in
	}

	outputs := []coin.TransactionOutput{coin.NewOutput(value, recipient)}
	if change := total - need; change > 0 {
		outputs = append(outputs, coin.NewOutput(change, sender.Public()))
	}

	return coin.Transaction{Inputs: inputs, Outputs: outputs}, nil
}

// validateRequest runs req through the struct tags above and, on failure,
// renders every field error through an English translator instead of
// validator's default Go-struct-shaped messages, so CLI users see
// "Value is a required field" rather than "Key: 'sendRequest.Value' ...".
func validateRequest(req sendRequest) error {
	locale := english.New()
	translator, _ := ut.New(locale, locale).GetTranslator("en")

	v := validator.New()
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		return fmt.Errorf("registering validation translations: %w", err)
	}

	if err := v.Struct(req); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			msgs[i] = fe.Translate(translator)
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

func loadPublicKey(path string) (signature.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.PublicKey{}, err
	}
	return signature.ParseSPKI(data)
}
