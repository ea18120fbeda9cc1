package main

func (cli *commandLine) createSuperuser(email, fullName, pwd string) error {
	_, err := cli.usrSvc.CreateSuperuser(email, fullName, pwd)
	return err
}
